package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/warranty"
)

const (
	ReportStatusReceived   = "received"
	ReportStatusInspecting = "inspecting"
	ReportStatusRepaired   = "repaired"
	ReportStatusReturned   = "returned"
)

// clientListLimit caps what a client sees in one portal response.
const clientListLimit = 500

type ReportService struct {
	repo       domain.ReportRepository
	clientRepo domain.ClientRepository
	log        *slog.Logger
}

func NewReportService(repo domain.ReportRepository, clientRepo domain.ClientRepository, log *slog.Logger) *ReportService {
	return &ReportService{repo: repo, clientRepo: clientRepo, log: log}
}

type CreateReportInput struct {
	ClientID       uuid.UUID
	DeviceModel    string `validate:"required,max=200"`
	SerialNumber   string `validate:"required,max=100"`
	InspectionDate *time.Time
	Status         string `validate:"omitempty,oneof=received inspecting repaired returned"`
	Notes          string `validate:"max=4000"`
}

func (s *ReportService) Create(ctx context.Context, input CreateReportInput) (*domain.Report, error) {
	input.DeviceModel = strings.TrimSpace(input.DeviceModel)
	input.SerialNumber = strings.TrimSpace(input.SerialNumber)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.ClientID == uuid.Nil {
		return nil, fmt.Errorf("%w: client_id is required", domain.ErrInvalidInput)
	}
	if _, err := s.clientRepo.GetByID(ctx, input.ClientID); err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	status := input.Status
	if status == "" {
		status = ReportStatusReceived
	}

	report := &domain.Report{
		ClientID:       input.ClientID,
		DeviceModel:    input.DeviceModel,
		SerialNumber:   input.SerialNumber,
		InspectionDate: input.InspectionDate,
		Status:         status,
		Notes:          input.Notes,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.log.Info("report created", "id", report.ID, "client_id", report.ClientID, "model", report.DeviceModel)
	return report, nil
}

func (s *ReportService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ReportService) List(ctx context.Context, filter domain.ReportFilter) ([]*domain.Report, int, error) {
	return s.repo.List(ctx, filter)
}

// ListForClient returns every report of one client, newest first.
func (s *ReportService) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Report, error) {
	reports, _, err := s.repo.List(ctx, domain.ReportFilter{
		ClientID:  &clientID,
		Page:      1,
		PerPage:   clientListLimit,
		SortBy:    "date",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("list client reports: %w", err)
	}
	return reports, nil
}

func (s *ReportService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, notes *string) error {
	switch status {
	case ReportStatusReceived, ReportStatusInspecting, ReportStatusRepaired, ReportStatusReturned:
	default:
		return fmt.Errorf("%w: unknown report status %q", domain.ErrInvalidInput, status)
	}
	return s.repo.UpdateStatus(ctx, id, status, notes)
}

func (s *ReportService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

type WarrantyView struct {
	ReportID     uuid.UUID                           `json:"report_id"`
	ReportDate   time.Time                           `json:"report_date"`
	Windows      map[warranty.Window]warranty.Status `json:"windows"`
	CalculatedAt time.Time                           `json:"calculated_at"`
}

// Warranty calculates every warranty window of a report as of now.
func (s *ReportService) Warranty(ctx context.Context, id uuid.UUID, now time.Time) (*WarrantyView, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	date := report.EffectiveDate()
	return &WarrantyView{
		ReportID:     report.ID,
		ReportDate:   date,
		Windows:      warranty.All(date, now),
		CalculatedAt: now,
	}, nil
}
