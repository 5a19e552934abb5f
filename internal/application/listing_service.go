package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	listingDomain "github.com/unistay-housing/service-booking/internal/domain/listing"
	"github.com/unistay-housing/service-booking/pkg/domain"
)

// ListingDTO is the response representation of a listing.
type ListingDTO struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Address    string          `json:"address"`
	Rent       decimal.Decimal `json:"rent"`
	Currency   string          `json:"currency"`
	AgentName  string          `json:"agent_name"`
	AgentPhone string          `json:"agent_phone"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ListingService serves the read-only listing directory.
type ListingService struct {
	dir    listingDomain.ListingDirectory
	logger *zap.Logger
}

// NewListingService creates a new ListingService.
func NewListingService(dir listingDomain.ListingDirectory, logger *zap.Logger) *ListingService {
	return &ListingService{dir: dir, logger: logger}
}

// GetListing retrieves a single listing by ID.
func (s *ListingService) GetListing(ctx context.Context, listingID uuid.UUID) (*ListingDTO, error) {
	lst, err := s.dir.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	result := toListingDTO(lst)
	return &result, nil
}

// ListListings retrieves a paginated page of the directory.
func (s *ListingService) ListListings(ctx context.Context, page, limit int) (*domain.PaginatedResult[ListingDTO], error) {
	listings, total, err := s.dir.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ListingDTO, len(listings))
	for i, lst := range listings {
		dtos[i] = toListingDTO(lst)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toListingDTO(lst *listingDomain.Listing) ListingDTO {
	return ListingDTO{
		ID:         lst.ID(),
		Name:       lst.Name(),
		Address:    lst.Address(),
		Rent:       lst.Rent(),
		Currency:   domain.CurrencyKES,
		AgentName:  lst.AgentName(),
		AgentPhone: lst.AgentPhone(),
		UpdatedAt:  lst.UpdatedAt(),
	}
}
