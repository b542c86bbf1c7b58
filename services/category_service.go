package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/repository"
)

type CategoryService interface {
	Create(ctx context.Context, in models.CategoryInput) (*models.Category, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Rename(ctx context.Context, id string, in models.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryServiceImpl struct {
	repo   repository.CategoryRepository
	logger *zap.Logger
}

func NewCategoryService(repo repository.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryServiceImpl{repo: repo, logger: logger}
}

var errCategoryExists = apperrors.New(http.StatusConflict, apperrors.KindDuplicate, "Category already exists", nil)

func (s *categoryServiceImpl) categoryErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Category not found")
	case errors.Is(err, repository.ErrDuplicate):
		return errCategoryExists
	}
	s.logger.Error("Category storage failure", zap.String("op", op), zap.Error(err))
	return apperrors.Storage(err)
}

func (s *categoryServiceImpl) Create(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	c := &models.Category{Name: in.Name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, s.categoryErr("create", err)
	}
	return c, nil
}

func (s *categoryServiceImpl) Get(ctx context.Context, id string) (*models.Category, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, apperrors.Validation("Invalid category id")
	}
	c, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, s.categoryErr("get", err)
	}
	return c, nil
}

func (s *categoryServiceImpl) List(ctx context.Context) ([]models.Category, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.categoryErr("list", err)
	}
	return out, nil
}

// Rename does not touch products already filed under the old name.
func (s *categoryServiceImpl) Rename(ctx context.Context, id string, in models.CategoryInput) (*models.Category, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, apperrors.Validation("Invalid category id")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	c, err := s.repo.Rename(ctx, oid, in.Name)
	if err != nil {
		return nil, s.categoryErr("rename", err)
	}
	return c, nil
}

func (s *categoryServiceImpl) Delete(ctx context.Context, id string) error {
	oid, ok := parseObjectID(id)
	if !ok {
		return apperrors.Validation("Invalid category id")
	}
	if err := s.repo.Delete(ctx, oid); err != nil {
		return s.categoryErr("delete", err)
	}
	return nil
}
