package booking

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingSnapshot freezes the listing details a booking was made against.
// Later edits to the listing never alter an existing booking.
type ListingSnapshot struct {
	ListingID  uuid.UUID       `json:"listing_id"`
	Name       string          `json:"name"`
	Address    string          `json:"address"`
	Rent       decimal.Decimal `json:"rent"`
	AgentName  string          `json:"agent_name"`
	AgentPhone string          `json:"agent_phone"`
}
