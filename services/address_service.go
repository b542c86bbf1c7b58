package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/repository"
)

type AddressService interface {
	Create(ctx context.Context, userID string, in models.AddressInput) (*models.Address, error)
	List(ctx context.Context, userID string) ([]models.Address, error)
	Update(ctx context.Context, userID, addressID string, in models.AddressInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID string) error
}

type addressServiceImpl struct {
	repo   repository.AddressRepository
	logger *zap.Logger
}

func NewAddressService(repo repository.AddressRepository, logger *zap.Logger) AddressService {
	return &addressServiceImpl{repo: repo, logger: logger}
}

func trimAddress(in models.AddressInput) models.AddressInput {
	in.FullName = strings.TrimSpace(in.FullName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Pincode = strings.TrimSpace(in.Pincode)
	in.Area = strings.TrimSpace(in.Area)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	return in
}

func (s *addressServiceImpl) Create(ctx context.Context, userID string, in models.AddressInput) (*models.Address, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	in = trimAddress(in)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	a := &models.Address{
		UserID:      userID,
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		Pincode:     in.Pincode,
		Area:        in.Area,
		City:        in.City,
		State:       in.State,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("Failed to create address", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Storage(err)
	}
	return a, nil
}

func (s *addressServiceImpl) List(ctx context.Context, userID string) ([]models.Address, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return out, nil
}

// Update edits the address in place. Orders placed earlier keep their own
// snapshot and are unaffected.
func (s *addressServiceImpl) Update(ctx context.Context, userID, addressID string, in models.AddressInput) (*models.Address, error) {
	oid, ok := parseObjectID(addressID)
	if !ok {
		return nil, apperrors.Validation("Invalid address id")
	}
	in = trimAddress(in)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	a := &models.Address{
		ID:          oid,
		UserID:      userID,
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		Pincode:     in.Pincode,
		Area:        in.Area,
		City:        in.City,
		State:       in.State,
	}
	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Address not found")
		}
		return nil, apperrors.Storage(err)
	}
	return a, nil
}

func (s *addressServiceImpl) Delete(ctx context.Context, userID, addressID string) error {
	oid, ok := parseObjectID(addressID)
	if !ok {
		return apperrors.Validation("Invalid address id")
	}
	if err := s.repo.Delete(ctx, oid, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Address not found")
		}
		return apperrors.Storage(err)
	}
	return nil
}
