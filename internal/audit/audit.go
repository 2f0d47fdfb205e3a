package audit

import (
	"context"

	"gorm.io/gorm"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

const (
	Login         = "LOGIN"
	CreateSale    = "CREATE_SALE"
	ReturnSale    = "RETURN_SALE"
	CreateProduct = "CREATE_PRODUCT"
	UpdateProduct = "UPDATE_PRODUCT"
	PatchProduct  = "PATCH_PRODUCT"
	DeleteProduct = "DELETE_PRODUCT"
	RestockItem   = "RESTOCK_PRODUCT"
	AIPriceChange = "AI_UPDATE_PRICE"
)

// Record appends an audit row. Pass the transaction handle when the entry
// must commit or roll back together with the change it describes.
func Record(ctx context.Context, db *gorm.DB, adminID, action string, details map[string]interface{}) error {
	entry := models.AuditLog{
		Action:  action,
		AdminID: adminID,
		Details: details,
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// List returns the newest entries first.
func List(ctx context.Context, db *gorm.DB, action string, limit int) ([]models.AuditLog, error) {
	q := db.WithContext(ctx).Order("id desc").Limit(limit)
	if action != "" {
		q = q.Where("action = ?", action)
	}
	logs := []models.AuditLog{}
	if err := q.Find(&logs).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return logs, nil
}
