package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	listingDomain "github.com/unistay-housing/service-booking/internal/domain/listing"
	"github.com/unistay-housing/service-booking/pkg/domain"
)

// ListingModel is the GORM model for the listings table. The listing
// service owns writes to this table; this service only reads it.
type ListingModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name       string          `gorm:"not null;size:200"`
	Address    string          `gorm:"not null;size:500"`
	Rent       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AgentName  string          `gorm:"size:100"`
	AgentPhone string          `gorm:"size:15"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ListingModel) TableName() string {
	return "listings"
}

// GormListingDirectory is the GORM-based implementation of
// ListingDirectory.
type GormListingDirectory struct {
	db *gorm.DB
}

// NewGormListingDirectory creates a new GormListingDirectory.
func NewGormListingDirectory(db *gorm.DB) *GormListingDirectory {
	return &GormListingDirectory{db: db}
}

// FindByID retrieves a listing by its unique identifier.
func (r *GormListingDirectory) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	var model ListingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Listing", id.String())
		}
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}
	return toDomainListing(&model), nil
}

// List retrieves listings with pagination.
func (r *GormListingDirectory) List(ctx context.Context, page, limit int) ([]*listingDomain.Listing, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ListingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var models []ListingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}

	listings := make([]*listingDomain.Listing, len(models))
	for i, m := range models {
		listings[i] = toDomainListing(&m)
	}
	return listings, total, nil
}

func toDomainListing(m *ListingModel) *listingDomain.Listing {
	return listingDomain.Reconstruct(
		m.ID,
		m.Name,
		m.Address,
		m.Rent,
		m.AgentName,
		m.AgentPhone,
		m.UpdatedAt,
	)
}
