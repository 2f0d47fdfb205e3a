package storefront

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reda-store/internal/apperr"
	"reda-store/internal/database"
	"reda-store/internal/models"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	return NewService(db, "+94 72 112 6526", "https://reda.lk/")
}

func TestSettingsDefaultsThenSave(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	st, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Reda Store", st.SiteName)
	assert.Equal(t, "+94 72 112 6526", st.WhatsAppNumber)
	assert.Equal(t, "Colombo, Sri Lanka", st.Address)
	assert.Equal(t, []string{}, st.BannerImages)

	_, err = svc.SaveSettings(ctx, SettingsInput{SiteName: "Reda Auto", WhatsAppNumber: "0771234567", BannerImages: []string{"b1"}})
	require.NoError(t, err)
	_, err = svc.SaveSettings(ctx, SettingsInput{SiteName: "Reda Auto Parts", WhatsAppNumber: "0771234567", Email: "shop@reda.lk"})
	require.NoError(t, err)

	st, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Reda Auto Parts", st.SiteName)
	assert.Equal(t, "shop@reda.lk", st.Email)
	assert.Equal(t, []string{}, st.BannerImages)
}

func TestSettingsValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := []SettingsInput{
		{WhatsAppNumber: "077"},
		{SiteName: "Reda"},
		{SiteName: "Reda", WhatsAppNumber: "077", Email: "not-an-email"},
	}
	for _, in := range cases {
		_, err := svc.SaveSettings(ctx, in)
		assert.True(t, errors.Is(err, apperr.ErrValidation), "%+v", in)
	}
}

func TestFeedbackModeration(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	fb, err := svc.SubmitFeedback(ctx, FeedbackInput{Name: "Nimal", Message: "Great service!", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackPending, fb.Status)

	_, err = svc.SubmitFeedback(ctx, FeedbackInput{Name: "Kamal", Message: "ok", Rating: 3})
	assert.Equal(t, "Message too short", apperr.Message(err))
	_, err = svc.SubmitFeedback(ctx, FeedbackInput{Name: "Kamal", Message: "fine shop", Rating: 6})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	public, err := svc.Feedback(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, public)

	require.NoError(t, svc.SetFeedbackStatus(ctx, fb.ID, models.FeedbackApproved))
	require.NoError(t, svc.SetFeedbackStatus(ctx, fb.ID, models.FeedbackApproved))

	public, err = svc.Feedback(ctx, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Nimal", public[0].Name)

	all, err := svc.Feedback(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.True(t, errors.Is(svc.SetFeedbackStatus(ctx, fb.ID, "spam"), apperr.ErrValidation))
	assert.True(t, errors.Is(svc.SetFeedbackStatus(ctx, "x", models.FeedbackRejected), apperr.ErrInvalidIdentifier))
	assert.True(t, errors.Is(svc.SetFeedbackStatus(ctx, uuid.NewString(), models.FeedbackRejected), apperr.ErrNotFound))
}

func TestStockRequests(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var first *models.StockRequest
	for i := 0; i < 8; i++ {
		r, err := svc.SubmitStockRequest(ctx, StockRequestInput{Name: "Sunil", Phone: "0771234567", ItemName: "Toyota Axio mirror"})
		require.NoError(t, err)
		if first == nil {
			first = r
		}
	}
	require.NoError(t, svc.SetStockRequestStatus(ctx, first.ID, models.StockRequestFulfilled))

	public, err := svc.StockRequests(ctx, false)
	require.NoError(t, err)
	assert.Len(t, public, 6)
	for _, r := range public {
		assert.Equal(t, models.StockRequestPending, r.Status)
	}

	all, err := svc.StockRequests(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	_, err = svc.SubmitStockRequest(ctx, StockRequestInput{Name: "Sunil", Phone: "077", ItemName: "x"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = svc.SubmitStockRequest(ctx, StockRequestInput{Name: "Sunil", Phone: "077", ItemName: "Bulb", Details: strings.Repeat("a", 501)})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.True(t, errors.Is(svc.SetStockRequestStatus(ctx, first.ID, "done"), apperr.ErrValidation))
}

func TestOrderLink(t *testing.T) {
	link := BuildOrderLink("+94 72-112 6526", "Oil Filter & Seal", 1250, "https://reda.lk/product/abc")
	assert.True(t, strings.HasPrefix(link.URL, "https://wa.me/94721126526?text="))
	assert.Contains(t, link.URL, "Oil%20Filter%20%26%20Seal")
	assert.Contains(t, link.URL, "%0A")
	assert.NotContains(t, link.URL, "+")
	assert.Contains(t, link.Message, "Price: Rs. 1,250.00")
	assert.Contains(t, link.Message, "Product link: https://reda.lk/product/abc")
}

func TestOrderLinkUsesSavedNumber(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.SaveSettings(ctx, SettingsInput{SiteName: "Reda", WhatsAppNumber: "+94 77 000 1111"})
	require.NoError(t, err)

	link, err := svc.OrderLink(ctx, "p-1", "Horn", 900)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "https://wa.me/94770001111?"))
	assert.Equal(t, "https://reda.lk/product/p-1", link.ShareURL)
}

func TestFeedbackNewestFirst(t *testing.T) {
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	svc := NewService(db, "077", "")
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "new"} {
		require.NoError(t, db.Create(&models.Feedback{
			Name: name, Message: "lovely shop", Rating: 4,
			Status: models.FeedbackApproved, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}
	out, err := svc.Feedback(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].Name)
}
