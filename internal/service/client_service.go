package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CaioWing/repairdesk/internal/auth"
	"github.com/CaioWing/repairdesk/internal/domain"
)

type ClientService struct {
	repo   domain.ClientRepository
	jwtMgr *auth.JWTManager
	log    *slog.Logger
}

func NewClientService(repo domain.ClientRepository, jwtMgr *auth.JWTManager, log *slog.Logger) *ClientService {
	return &ClientService{repo: repo, jwtMgr: jwtMgr, log: log}
}

type RegisterClientInput struct {
	Name     string `validate:"required,max=200"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"omitempty,max=40"`
	Password string `validate:"omitempty,min=8"`
}

// Register opens a portal account. When no password is given one is
// generated and returned; otherwise the returned password is empty.
func (s *ClientService) Register(ctx context.Context, input RegisterClientInput) (*domain.Client, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(input); err != nil {
		return nil, "", err
	}

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", fmt.Errorf("%w: email %s", domain.ErrConflict, input.Email)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup client: %w", err)
	}

	password, generated := input.Password, ""
	if password == "" {
		p, err := auth.GenerateInitialPassword()
		if err != nil {
			return nil, "", err
		}
		password, generated = p, p
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	client := &domain.Client{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, "", fmt.Errorf("create client: %w", err)
	}

	s.log.Info("client registered", "id", client.ID)
	return client, generated, nil
}

// Authenticate checks a client's credentials and issues a portal token.
func (s *ClientService) Authenticate(ctx context.Context, email, password string) (string, time.Time, error) {
	client, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", time.Time{}, domain.ErrUnauthorized
		}
		return "", time.Time{}, fmt.Errorf("lookup client: %w", err)
	}
	if !auth.CheckPassword(client.PasswordHash, password) {
		s.log.Warn("client login rejected", "id", client.ID)
		return "", time.Time{}, domain.ErrUnauthorized
	}

	token, expiresAt, err := s.jwtMgr.Generate(client.ID.String(), auth.RoleClient)
	if err != nil {
		return "", time.Time{}, err
	}
	s.log.Info("client authenticated", "id", client.ID)
	return token, expiresAt, nil
}

func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ClientService) List(ctx context.Context, filter domain.ClientFilter) ([]*domain.Client, int, error) {
	return s.repo.List(ctx, filter)
}
