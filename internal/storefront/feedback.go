package storefront

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

const (
	publicFeedbackLimit = 20
	adminFeedbackLimit  = 100
)

type FeedbackInput struct {
	Name    string `json:"name" binding:"required,max=80"`
	Message string `json:"message" binding:"required,min=5,max=1000"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
}

func (in FeedbackInput) validate() error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return apperr.Validation("Name is required")
	case utf8.RuneCountInString(name) > 80:
		return apperr.Validation("Name too long")
	case utf8.RuneCountInString(in.Message) < 5:
		return apperr.Validation("Message too short")
	case utf8.RuneCountInString(in.Message) > 1000:
		return apperr.Validation("Message too long")
	case in.Rating < 1 || in.Rating > 5:
		return apperr.Validation("Rating must be between 1 and 5")
	}
	return nil
}

// SubmitFeedback stores a review as pending until an admin approves it.
func (s *Service) SubmitFeedback(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	fb := models.Feedback{
		Name:    strings.TrimSpace(in.Name),
		Message: in.Message,
		Rating:  in.Rating,
		Status:  models.FeedbackPending,
	}
	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return &fb, nil
}

// Feedback lists approved reviews, or every review when all is set.
func (s *Service) Feedback(ctx context.Context, all bool) ([]models.Feedback, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if all {
		q = q.Limit(adminFeedbackLimit)
	} else {
		q = q.Where("status = ?", models.FeedbackApproved).Limit(publicFeedbackLimit)
	}
	out := []models.Feedback{}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func (s *Service) SetFeedbackStatus(ctx context.Context, id, status string) error {
	switch status {
	case models.FeedbackPending, models.FeedbackApproved, models.FeedbackRejected:
	default:
		return apperr.Validation("Invalid request")
	}
	return s.setStatus(ctx, &models.Feedback{}, id, status)
}

func (s *Service) setStatus(ctx context.Context, model interface{}, id, status string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.ErrInvalidIdentifier
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
			return apperr.Storage(err)
		}
		if n == 0 {
			return apperr.New(apperr.NotFound, "Not found")
		}
		// RowsAffected is unreliable here: MySQL reports 0 when the status is unchanged
		return apperr.Storage(tx.Model(model).Where("id = ?", id).Update("status", status).Error)
	})
}
