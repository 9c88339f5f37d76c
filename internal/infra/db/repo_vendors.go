package db

import (
	"context"
	"errors"
	"time"

	"sentra/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) Create(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	if r == nil || r.db == nil {
		return domain.Vendor{}, errDBUnavailable
	}
	if vendor.ID == "" {
		vendor.ID = uuid.NewString()
	}
	if vendor.CreatedAt.IsZero() {
		vendor.CreatedAt = time.Now().UTC()
	}
	model := VendorModel{
		ID:         vendor.ID,
		TenantID:   vendor.TenantID,
		Name:       vendor.Name,
		ProviderID: vendor.ProviderID,
		CreatedAt:  vendor.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Vendor{}, err
	}
	return vendor, nil
}

func (r *VendorRepository) GetByID(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	if r == nil || r.db == nil {
		return nil, errDBUnavailable
	}
	var model VendorModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", vendorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	vendor := vendorFromModel(model)
	return &vendor, nil
}

func (r *VendorRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Vendor, error) {
	if r == nil || r.db == nil {
		return nil, errDBUnavailable
	}
	var models []VendorModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Vendor, 0, len(models))
	for _, model := range models {
		out = append(out, vendorFromModel(model))
	}
	return out, nil
}

func vendorFromModel(model VendorModel) domain.Vendor {
	return domain.Vendor{
		ID:         model.ID,
		TenantID:   model.TenantID,
		Name:       model.Name,
		ProviderID: model.ProviderID,
		CreatedAt:  model.CreatedAt,
	}
}
