package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"contacts-api/internal/domain"
	"contacts-api/internal/repository"
)

// ContactService expone CRUD de contactos acotado al owner autenticado.
type ContactService struct {
	logger   *zap.Logger
	contacts repository.ContactRepository
}

func NewContactService(logger *zap.Logger, contacts repository.ContactRepository) *ContactService {
	return &ContactService{
		logger:   logger,
		contacts: contacts,
	}
}

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrContactInvalid  = errors.New("contact fields missing")
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ContactInput struct {
	Name     string
	Email    string
	Phone    string
	Favorite bool
}

type ContactPage struct {
	Contacts   []domain.Contact `json:"contacts"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// List devuelve una pagina de contactos del owner, con filtro opcional
// por favorite.
func (s *ContactService) List(ctx context.Context, owner string, page, limit int, favorite *bool) (ContactPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	offset := (page - 1) * limit
	contacts, total, err := s.contacts.List(ctx, owner, favorite, limit, offset)
	if err != nil {
		return ContactPage{}, err
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return ContactPage{
		Contacts:   contacts,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *ContactService) GetByID(ctx context.Context, owner, id string) (domain.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, ErrContactNotFound
		}
		return domain.Contact{}, err
	}
	return contact, nil
}

func (s *ContactService) Create(ctx context.Context, owner string, input ContactInput) (domain.Contact, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Name == "" || input.Email == "" || input.Phone == "" {
		return domain.Contact{}, ErrContactInvalid
	}

	contact := domain.Contact{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Favorite:  input.Favorite,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

func (s *ContactService) Update(ctx context.Context, owner, id string, input ContactInput) (domain.Contact, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Name == "" || input.Email == "" || input.Phone == "" {
		return domain.Contact{}, ErrContactInvalid
	}

	contact, err := s.contacts.Update(ctx, domain.Contact{
		ID:       id,
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Favorite: input.Favorite,
		Owner:    owner,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, ErrContactNotFound
		}
		return domain.Contact{}, err
	}
	return contact, nil
}

func (s *ContactService) UpdateFavorite(ctx context.Context, owner, id string, favorite bool) (domain.Contact, error) {
	contact, err := s.contacts.UpdateFavorite(ctx, owner, id, favorite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, ErrContactNotFound
		}
		return domain.Contact{}, err
	}
	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, owner, id string) error {
	if err := s.contacts.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrContactNotFound
		}
		return err
	}
	return nil
}
