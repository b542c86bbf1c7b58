package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/repository"
)

type NewsletterService interface {
	Subscribe(ctx context.Context, email string) (*models.Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, page, limit int, activeOnly bool) ([]models.Subscriber, models.PaginationMeta, error)
}

type newsletterServiceImpl struct {
	repo   repository.SubscriberRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewNewsletterService(repo repository.SubscriberRepository, logger *zap.Logger) NewsletterService {
	return &newsletterServiceImpl{repo: repo, logger: logger, now: time.Now}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.Validation("Invalid email address")
	}
	return email, nil
}

// Subscribe is idempotent; an unsubscribed address is reactivated.
func (s *newsletterServiceImpl) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsActive {
			return existing, nil
		}
		existing.IsActive = true
		existing.SubscribedAt = s.now().UTC()
		existing.UnsubscribedAt = nil
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, apperrors.Storage(err)
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Storage(err)
	}

	sub := &models.Subscriber{Email: email, IsActive: true, SubscribedAt: s.now().UTC()}
	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if existing, ferr := s.repo.FindByEmail(ctx, email); ferr == nil {
				return existing, nil
			}
		}
		s.logger.Error("Failed to store subscriber", zap.Error(err))
		return nil, apperrors.Storage(err)
	}
	return sub, nil
}

func (s *newsletterServiceImpl) Unsubscribe(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	existing, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Subscriber not found")
	}
	if err != nil {
		return apperrors.Storage(err)
	}
	if !existing.IsActive {
		return nil
	}
	now := s.now().UTC()
	existing.IsActive = false
	existing.UnsubscribedAt = &now
	if err := s.repo.Save(ctx, existing); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func (s *newsletterServiceImpl) List(ctx context.Context, page, limit int, activeOnly bool) ([]models.Subscriber, models.PaginationMeta, error) {
	page, limit = pageBounds(page, limit)
	subs, total, err := s.repo.FindAll(ctx, page, limit, activeOnly)
	if err != nil {
		return nil, models.PaginationMeta{}, apperrors.Storage(err)
	}
	return subs, models.NewPaginationMeta(page, limit, total), nil
}
