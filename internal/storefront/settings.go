// Package storefront holds the customer-facing extras around the catalog:
// site settings, feedback, stock requests and WhatsApp order links.
package storefront

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

const settingsRowID = 1

// SettingsInput is the admin settings form.
type SettingsInput struct {
	SiteName       string   `json:"siteName" binding:"required"`
	WhatsAppNumber string   `json:"whatsappNumber" binding:"required"`
	BannerImages   []string `json:"bannerImages"`
	SliderImages   []string `json:"sliderImages"`
	Address        string   `json:"address"`
	Email          string   `json:"email"`
	FooterText     string   `json:"footerText"`
}

type Service struct {
	db              *gorm.DB
	defaultWhatsApp string
	baseURL         string
}

func NewService(db *gorm.DB, defaultWhatsApp, baseURL string) *Service {
	return &Service{
		db:              db,
		defaultWhatsApp: defaultWhatsApp,
		baseURL:         strings.TrimRight(baseURL, "/"),
	}
}

// DefaultSettings is what the storefront shows before an admin saves anything.
func (s *Service) DefaultSettings() models.Settings {
	return models.Settings{
		ID:             settingsRowID,
		SiteName:       "Reda Store",
		WhatsAppNumber: s.defaultWhatsApp,
		BannerImages:   []string{},
		SliderImages:   []string{},
		Address:        "Colombo, Sri Lanka",
		Email:          "info@redastore.lk",
		FooterText:     "© 2026 Reda Store. All rights reserved.",
	}
}

func (s *Service) Settings(ctx context.Context) (*models.Settings, error) {
	var st models.Settings
	err := s.db.WithContext(ctx).Where("id = ?", settingsRowID).Take(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := s.DefaultSettings()
		return &def, nil
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if st.BannerImages == nil {
		st.BannerImages = []string{}
	}
	if st.SliderImages == nil {
		st.SliderImages = []string{}
	}
	return &st, nil
}

func (in SettingsInput) validate() error {
	if strings.TrimSpace(in.SiteName) == "" {
		return apperr.Validation("Site name is required")
	}
	if strings.TrimSpace(in.WhatsAppNumber) == "" {
		return apperr.Validation("WhatsApp number is required")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return apperr.Validation("Invalid email")
		}
	}
	return nil
}

// SaveSettings replaces the settings row, creating it on first save.
func (s *Service) SaveSettings(ctx context.Context, in SettingsInput) (*models.Settings, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	st := models.Settings{
		ID:             settingsRowID,
		SiteName:       strings.TrimSpace(in.SiteName),
		WhatsAppNumber: strings.TrimSpace(in.WhatsAppNumber),
		BannerImages:   orEmpty(in.BannerImages),
		SliderImages:   orEmpty(in.SliderImages),
		Address:        in.Address,
		Email:          in.Email,
		FooterText:     in.FooterText,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&st).Error
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &st, nil
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
