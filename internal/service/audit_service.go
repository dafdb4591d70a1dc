package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type AuditService struct {
	repo domain.AuditRepository
	log  *slog.Logger
}

func NewAuditService(repo domain.AuditRepository, log *slog.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Log records an action. Write failures are logged and dropped so they never
// fail the request being audited.
func (s *AuditService) Log(ctx context.Context, entry *domain.AuditEntry) {
	if entry.Details == nil {
		entry.Details = map[string]interface{}{}
	}
	if entry.ActorType == "" {
		entry.ActorType = domain.ActorSystem
	}
	if entry.Actor == "" {
		entry.Actor = entry.ActorType
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn("audit write failed", "action", entry.Action, "resource", entry.Resource, "err", err)
	}
}

// ClientLogin records a portal sign-in attempt under the email that was
// tried.
func (s *AuditService) ClientLogin(ctx context.Context, email, ip string, ok bool) {
	entry := &domain.AuditEntry{
		Actor:     email,
		ActorType: domain.ActorClient,
		Action:    "client.login",
		Resource:  "client",
		IPAddress: ip,
	}
	if !ok {
		entry.Action = "client.login_failed"
	}
	s.Log(ctx, entry)
}

func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, int, error) {
	if filter.Since != nil && filter.Since.After(time.Now()) {
		return nil, 0, fmt.Errorf("%w: since is in the future", domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, filter)
}
