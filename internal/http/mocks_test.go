package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"contacts-api/internal/domain"
	"contacts-api/internal/service"
)

type mockUserRepo struct {
	mu        sync.Mutex
	usersByID map[string]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{usersByID: make(map[string]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.usersByID {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByVerificationToken(_ context.Context, token string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.usersByID {
		if user.VerificationToken != nil && *user.VerificationToken == token {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) UpdateToken(_ context.Context, id string, token *string) error {
	return m.mutate(id, func(u *domain.User) { u.Token = token })
}

func (m *mockUserRepo) UpdateVerificationToken(_ context.Context, id string, token string) error {
	return m.mutate(id, func(u *domain.User) { u.VerificationToken = &token })
}

func (m *mockUserRepo) ConsumeVerificationToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, user := range m.usersByID {
		if user.VerificationToken != nil && *user.VerificationToken == token {
			user.Verify = true
			user.VerificationToken = nil
			m.usersByID[id] = user
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockUserRepo) UpdateSubscription(_ context.Context, id, subscription string) error {
	return m.mutate(id, func(u *domain.User) { u.Subscription = subscription })
}

func (m *mockUserRepo) UpdateAvatarURL(_ context.Context, id, avatarURL string) error {
	return m.mutate(id, func(u *domain.User) { u.AvatarURL = avatarURL })
}

func (m *mockUserRepo) mutate(id string, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(&user)
	m.usersByID[id] = user
	return nil
}

type mockContactRepo struct {
	mu       sync.Mutex
	contacts []domain.Contact
}

func newMockContactRepo() *mockContactRepo {
	return &mockContactRepo{}
}

func (m *mockContactRepo) Create(_ context.Context, contact domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, contact)
	return nil
}

func (m *mockContactRepo) GetByID(_ context.Context, owner, id string) (domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.Owner == owner && c.ID == id {
			return c, nil
		}
	}
	return domain.Contact{}, pgx.ErrNoRows
}

func (m *mockContactRepo) List(_ context.Context, owner string, favorite *bool, limit, offset int) ([]domain.Contact, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]domain.Contact, 0)
	for _, c := range m.contacts {
		if c.Owner != owner {
			continue
		}
		if favorite != nil && c.Favorite != *favorite {
			continue
		}
		matched = append(matched, c)
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *mockContactRepo) Update(_ context.Context, contact domain.Contact) (domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.contacts {
		if c.Owner == contact.Owner && c.ID == contact.ID {
			contact.CreatedAt = c.CreatedAt
			m.contacts[i] = contact
			return contact, nil
		}
	}
	return domain.Contact{}, pgx.ErrNoRows
}

func (m *mockContactRepo) UpdateFavorite(_ context.Context, owner, id string, favorite bool) (domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.contacts {
		if c.Owner == owner && c.ID == id {
			m.contacts[i].Favorite = favorite
			return m.contacts[i], nil
		}
	}
	return domain.Contact{}, pgx.ErrNoRows
}

func (m *mockContactRepo) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.contacts {
		if c.Owner == owner && c.ID == id {
			m.contacts = append(m.contacts[:i], m.contacts[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type mockEmailSender struct {
	mu   sync.Mutex
	sent []string
}

func (m *mockEmailSender) SendVerification(_ context.Context, _ string, verifyURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, verifyURL)
	return nil
}

type testEnv struct {
	router    *gin.Engine
	users     *mockUserRepo
	contacts  *mockContactRepo
	jwtSvc    *service.JWTService
	sender    *mockEmailSender
	avatarDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	users := newMockUserRepo()
	contacts := newMockContactRepo()
	sender := &mockEmailSender{}

	jwtSvc := service.NewJWTService("test-secret", time.Hour)
	limiter := service.NewMemoryResendLimiter(time.Minute, 100)
	userSvc := service.NewUserService(logger, users, sender, jwtSvc, limiter, "http://localhost:8080")

	avatarDir := t.TempDir()
	avatarSvc, err := service.NewAvatarService(logger, users, avatarDir, t.TempDir())
	if err != nil {
		t.Fatalf("avatar service: %v", err)
	}
	contactSvc := service.NewContactService(logger, contacts)

	userHandler := NewUserHandler(logger, userSvc, avatarSvc)
	contactHandler := NewContactHandler(logger, contactSvc)
	authMW := AuthMiddleware(jwtSvc, users)

	return &testEnv{
		router:    NewRouter(logger, userHandler, contactHandler, authMW, avatarDir),
		users:     users,
		contacts:  contacts,
		jwtSvc:    jwtSvc,
		sender:    sender,
		avatarDir: avatarDir,
	}
}

// seedAuthedUser inserta un usuario verificado con sesion activa y
// devuelve su bearer token.
func (env *testEnv) seedAuthedUser(t *testing.T, email string) (domain.User, string) {
	t.Helper()
	id := uuid.NewString()
	token, err := env.jwtSvc.Issue(id)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	user := domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "x",
		Subscription: domain.SubscriptionStarter,
		AvatarURL:    domain.DefaultAvatarURL(email),
		Verify:       true,
		Token:        &token,
		CreatedAt:    time.Now().UTC(),
	}
	if err := env.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user, token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
