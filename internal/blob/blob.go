// Package blob stores uploaded product and banner images.
package blob

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

type Object struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
}

type Store interface {
	Put(ctx context.Context, filename, contentType string, data []byte, uploadedBy string) (string, error)
	Get(ctx context.Context, id string) (*Object, error)
}

// GormStore keeps blobs in the images table next to the rest of the data.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Put(ctx context.Context, filename, contentType string, data []byte, uploadedBy string) (string, error) {
	img := models.Image{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		UploadedBy:  uploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(&img).Error; err != nil {
		return "", apperr.Storage(err)
	}
	return img.ID, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Object, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.ErrInvalidIdentifier
	}
	var img models.Image
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "Image not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Object{ID: img.ID, Filename: img.Filename, ContentType: img.ContentType, Data: img.Data}, nil
}
