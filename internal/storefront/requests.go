package storefront

import (
	"context"
	"strings"
	"unicode/utf8"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

const (
	publicRequestLimit = 6
	adminRequestLimit  = 200
)

type StockRequestInput struct {
	Name     string `json:"name" binding:"required,max=80"`
	Phone    string `json:"phone" binding:"required,max=30"`
	ItemName string `json:"itemName" binding:"required,min=2,max=200"`
	Details  string `json:"details" binding:"max=500"`
}

func (in StockRequestInput) validate() error {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	item := strings.TrimSpace(in.ItemName)
	switch {
	case name == "" || utf8.RuneCountInString(name) > 80:
		return apperr.Validation("Invalid name")
	case phone == "" || utf8.RuneCountInString(phone) > 30:
		return apperr.Validation("Invalid phone")
	case utf8.RuneCountInString(item) < 2 || utf8.RuneCountInString(item) > 200:
		return apperr.Validation("Invalid item name")
	case utf8.RuneCountInString(in.Details) > 500:
		return apperr.Validation("Details too long")
	}
	return nil
}

func (s *Service) SubmitStockRequest(ctx context.Context, in StockRequestInput) (*models.StockRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	req := models.StockRequest{
		Name:     strings.TrimSpace(in.Name),
		Phone:    strings.TrimSpace(in.Phone),
		ItemName: strings.TrimSpace(in.ItemName),
		Details:  in.Details,
		Status:   models.StockRequestPending,
	}
	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return &req, nil
}

// StockRequests returns the few newest pending requests for the public wall,
// or the admin inbox when admin is set.
func (s *Service) StockRequests(ctx context.Context, admin bool) ([]models.StockRequest, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if admin {
		q = q.Limit(adminRequestLimit)
	} else {
		q = q.Where("status = ?", models.StockRequestPending).Limit(publicRequestLimit)
	}
	out := []models.StockRequest{}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func (s *Service) SetStockRequestStatus(ctx context.Context, id, status string) error {
	switch status {
	case models.StockRequestPending, models.StockRequestFulfilled, models.StockRequestRejected:
	default:
		return apperr.Validation("Invalid request")
	}
	return s.setStatus(ctx, &models.StockRequest{}, id, status)
}
