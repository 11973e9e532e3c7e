package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"contacts-api/internal/domain"
	"contacts-api/internal/email"
	"contacts-api/internal/repository"
)

// UserService coordina reglas de negocio para cuentas y sesiones.
type UserService struct {
	logger        *zap.Logger
	users         repository.UserRepository
	emailSender   email.Sender
	tokens        *JWTService
	resendLimiter ResendRateLimiter
	baseURL       string
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender, tokens *JWTService, resendLimiter ResendRateLimiter, baseURL string) *UserService {
	if resendLimiter == nil {
		resendLimiter = NewMemoryResendLimiter(resendWindow, 3)
	}
	return &UserService{
		logger:        logger,
		users:         users,
		emailSender:   emailSender,
		tokens:        tokens,
		resendLimiter: resendLimiter,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

var (
	ErrEmailInUse          = errors.New("email in use")
	ErrInvalidCredentials  = errors.New("email or password is wrong")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyVerified     = errors.New("verification has already been passed")
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrEmailSendFailure    = errors.New("email send failed")
	ErrRateLimited         = errors.New("rate limited")
)

const (
	resendWindow     = 10 * time.Minute
	emailSendTimeout = 10 * time.Second
)

// Signup crea una cuenta sin verificar y dispara el correo de verificacion
// sin bloquear la respuesta.
func (s *UserService) Signup(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" || strings.TrimSpace(password) == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailInUse
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	verificationToken := uuid.NewString()
	user := domain.User{
		ID:                uuid.NewString(),
		Email:             emailAddr,
		PasswordHash:      passwordHash,
		Subscription:      domain.SubscriptionStarter,
		AvatarURL:         domain.DefaultAvatarURL(emailAddr),
		Verify:            false,
		VerificationToken: &verificationToken,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// La restriccion unique cubre el signup concurrente con el mismo email.
		if isUniqueViolation(err) {
			return domain.User{}, ErrEmailInUse
		}
		return domain.User{}, err
	}

	s.dispatchVerification(user.Email, verificationToken)
	return user, nil
}

// Login autentica credenciales y persiste el token de sesion unico.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (domain.User, string, error) {
	// La contrasena se compara tal cual se registro; recortarla rompe
	// cuentas cuya clave lleva espacios en los extremos.
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, "", ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !user.Verify {
		return domain.User{}, "", ErrEmailNotVerified
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	if err := s.users.UpdateToken(ctx, user.ID, &token); err != nil {
		return domain.User{}, "", err
	}
	user.Token = &token
	return user, token, nil
}

// Logout limpia el token de sesion; repetirlo no es un error.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.users.UpdateToken(ctx, userID, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// VerifyEmail consume el token de verificacion y marca la cuenta verificada.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrUserNotFound
	}
	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	// La actualizacion condicionada por token resuelve confirmaciones
	// concurrentes: solo una consume el token, el resto ve not-found.
	if err := s.users.ConsumeVerificationToken(ctx, token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	user.Verify = true
	user.VerificationToken = nil
	return user, nil
}

// ResendVerification reenvia el token almacenado a una cuenta sin verificar.
func (s *UserService) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return ErrUserNotFound
	}
	if s.resendLimiter != nil && !s.resendLimiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Verify {
		return ErrAlreadyVerified
	}

	// El token se reutiliza; solo se regenera si falta en el registro.
	token := ""
	if user.VerificationToken != nil {
		token = *user.VerificationToken
	}
	if token == "" {
		token = uuid.NewString()
		if err := s.users.UpdateVerificationToken(ctx, user.ID, token); err != nil {
			return err
		}
	}

	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendVerification(ctx, user.Email, s.verifyURL(token)); err != nil {
		if s.logger != nil {
			s.logger.Warn("send verification failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	return nil
}

// UpdateSubscription cambia el plan de la cuenta.
func (s *UserService) UpdateSubscription(ctx context.Context, userID, subscription string) (domain.User, error) {
	if !domain.ValidSubscription(subscription) {
		return domain.User{}, ErrInvalidSubscription
	}
	if err := s.users.UpdateSubscription(ctx, userID, subscription); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// dispatchVerification envia el correo en segundo plano; un fallo se
// registra pero nunca afecta la respuesta del signup.
func (s *UserService) dispatchVerification(toEmail, token string) {
	if s.emailSender == nil {
		if s.logger != nil {
			s.logger.Warn("email sender not configured, verification mail skipped", zap.String("email", toEmail))
		}
		return
	}
	verifyURL := s.verifyURL(token)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()
		if err := s.emailSender.SendVerification(ctx, toEmail, verifyURL); err != nil {
			if s.logger != nil {
				s.logger.Warn("send verification failed", zap.Error(err), zap.String("email", toEmail))
			}
		}
	}()
}

func (s *UserService) verifyURL(token string) string {
	return s.baseURL + "/auth/verify/" + token
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
