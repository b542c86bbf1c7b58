package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/models"
)

type fakeNewsletter struct {
	subscribed []string
}

func (f *fakeNewsletter) Subscribe(_ context.Context, email string) (*models.Subscriber, error) {
	f.subscribed = append(f.subscribed, email)
	return &models.Subscriber{Email: email, IsActive: true}, nil
}

func (f *fakeNewsletter) Unsubscribe(_ context.Context, email string) error {
	return apperrors.NotFound("Subscriber not found")
}

func (f *fakeNewsletter) List(_ context.Context, page, limit int, activeOnly bool) ([]models.Subscriber, models.PaginationMeta, error) {
	return []models.Subscriber{}, models.NewPaginationMeta(page, limit, 0), nil
}

func TestNewsletterController(t *testing.T) {
	svc := &fakeNewsletter{}
	nc := NewNewsletterController(svc)
	r := newTestEngine()
	r.POST("/newsletter/subscribe", nc.Subscribe)
	r.POST("/newsletter/unsubscribe", nc.Unsubscribe)

	w := doJSON(r, http.MethodPost, "/newsletter/subscribe", `{"email":"reader@example.in"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"reader@example.in"}, svc.subscribed)

	w = doJSON(r, http.MethodPost, "/newsletter/subscribe", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, svc.subscribed, 1)

	w = doJSON(r, http.MethodPost, "/newsletter/unsubscribe", `{"email":"ghost@example.in"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
