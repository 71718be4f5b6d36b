package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
	"timebill/pkg/utils"
)

// ClientInput is the payload for creating or updating a client.
type ClientInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Notes   string
}

// ClientService manages the client roster.
type ClientService interface {
	Create(ctx context.Context, userID string, in ClientInput) (*entity.Client, error)
	Get(ctx context.Context, clientID, userID string) (*entity.Client, error)
	List(ctx context.Context, userID string) ([]*entity.Client, error)
	Update(ctx context.Context, clientID, userID string, in ClientInput) (*entity.Client, error)
}

type clientServiceImpl struct {
	clientRepo port.ClientRepository
	clock      port.Clock
	logger     *zap.Logger
}

// NewClientService creates a new ClientService.
func NewClientService(clientRepo port.ClientRepository, clock port.Clock, logger *zap.Logger) ClientService {
	return &clientServiceImpl{
		clientRepo: clientRepo,
		clock:      clock,
		logger:     logger,
	}
}

func validateClientInput(in ClientInput) error {
	var v billing.Validator
	if in.Name == "" {
		v.Fail("name", "name is required")
	}
	if in.Email != "" && !utils.ValidEmail(in.Email) {
		v.Fail("email", "invalid email address")
	}
	return v.Err()
}

func (s *clientServiceImpl) Create(ctx context.Context, userID string, in ClientInput) (*entity.Client, error) {
	if err := validateClientInput(in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	client := &entity.Client{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      utils.SanitizeString(in.Name),
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   utils.SanitizeString(in.Address),
		Notes:     utils.SanitizeString(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	s.logger.Info("Client created",
		zap.String("client_id", client.ID),
		zap.String("user_id", userID))
	return client, nil
}

func (s *clientServiceImpl) Get(ctx context.Context, clientID, userID string) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil || client.UserID != userID {
		return nil, billing.ErrNotFound
	}
	return client, nil
}

func (s *clientServiceImpl) List(ctx context.Context, userID string) ([]*entity.Client, error) {
	clients, err := s.clientRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (s *clientServiceImpl) Update(ctx context.Context, clientID, userID string, in ClientInput) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil || client.UserID != userID {
		return nil, billing.ErrNotFound
	}

	if err := validateClientInput(in); err != nil {
		return nil, err
	}

	client.Name = utils.SanitizeString(in.Name)
	client.Email = in.Email
	client.Phone = in.Phone
	client.Address = utils.SanitizeString(in.Address)
	client.Notes = utils.SanitizeString(in.Notes)
	client.UpdatedAt = s.clock.Now()

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}
