package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is the read model of a rental listing as the booking service
// sees it. Listing management lives in another service; this service
// only reads listings to freeze a snapshot at booking time.
type Listing struct {
	id         uuid.UUID
	name       string
	address    string
	rent       decimal.Decimal
	agentName  string
	agentPhone string
	updatedAt  time.Time
}

// Reconstruct rebuilds a Listing from persistence data.
func Reconstruct(
	id uuid.UUID,
	name, address string,
	rent decimal.Decimal,
	agentName, agentPhone string,
	updatedAt time.Time,
) *Listing {
	return &Listing{
		id:         id,
		name:       name,
		address:    address,
		rent:       rent,
		agentName:  agentName,
		agentPhone: agentPhone,
		updatedAt:  updatedAt,
	}
}

// ID returns the listing's unique identifier.
func (l *Listing) ID() uuid.UUID { return l.id }

// Name returns the listing's display name.
func (l *Listing) Name() string { return l.name }

// Address returns the listing's street address.
func (l *Listing) Address() string { return l.address }

// Rent returns the monthly rent.
func (l *Listing) Rent() decimal.Decimal { return l.rent }

// AgentName returns the managing agent's name.
func (l *Listing) AgentName() string { return l.agentName }

// AgentPhone returns the managing agent's phone number.
func (l *Listing) AgentPhone() string { return l.agentPhone }

// UpdatedAt returns the last time the listing record changed.
func (l *Listing) UpdatedAt() time.Time { return l.updatedAt }
