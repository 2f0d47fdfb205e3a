package catalog

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm/clause"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

// StockedCategories lists the distinct categories of products with stock.
func (s *Service) StockedCategories(ctx context.Context) ([]string, error) {
	var cats []string
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("stock_qty > ?", 0).
		Distinct().Pluck("category", &cats).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return normalizeCategories(cats), nil
}

// Categories merges stocked product categories with the admin's custom ones.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	stocked, err := s.StockedCategories(ctx)
	if err != nil {
		return nil, err
	}
	var custom []string
	if err := s.db.WithContext(ctx).Model(&models.CustomCategory{}).Pluck("name", &custom).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return normalizeCategories(append(stocked, custom...)), nil
}

func (s *Service) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("Name required")
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CustomCategory{Name: name}).Error
	return apperr.Storage(err)
}

func (s *Service) RemoveCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("Name required")
	}
	err := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.CustomCategory{}).Error
	return apperr.Storage(err)
}

func normalizeCategories(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
