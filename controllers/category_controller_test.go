package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
)

type fakeCategories struct {
	created []string
}

func (f *fakeCategories) Create(_ context.Context, in models.CategoryInput) (*models.Category, error) {
	if in.Name == "Millets" {
		return nil, apperrors.New(http.StatusConflict, apperrors.KindDuplicate, "Category already exists", nil)
	}
	f.created = append(f.created, in.Name)
	return &models.Category{Name: in.Name}, nil
}

func (f *fakeCategories) Get(_ context.Context, id string) (*models.Category, error) {
	return nil, apperrors.NotFound("Category not found")
}

func (f *fakeCategories) List(_ context.Context) ([]models.Category, error) {
	return []models.Category{{Name: "Millets"}}, nil
}

func (f *fakeCategories) Rename(_ context.Context, id string, in models.CategoryInput) (*models.Category, error) {
	return &models.Category{Name: in.Name}, nil
}

func (f *fakeCategories) Delete(_ context.Context, id string) error {
	return nil
}

func TestCategoryController(t *testing.T) {
	svc := &fakeCategories{}
	cc := NewCategoryController(svc)
	r := newTestEngine()
	r.GET("/categories", cc.List)
	r.GET("/categories/:id", cc.Get)
	r.POST("/admin/categories", cc.Create)
	r.PATCH("/admin/categories/:id", cc.Rename)

	w := doJSON(r, http.MethodGet, "/categories", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Millets"`)

	w = doJSON(r, http.MethodPost, "/admin/categories", `{"name":"Pulses"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"Pulses"}, svc.created)

	w = doJSON(r, http.MethodPost, "/admin/categories", `{"name":"Millets"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Category already exists"}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/admin/categories", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/categories/"+productHex, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPatch, "/admin/categories/"+productHex, `{"name":"Oils"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Oils"`)
}
