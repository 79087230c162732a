package listing

import "time"

// Listing is a single agricultural-waste-for-sale record. Quantity and price
// are free-text on purpose ("500kg", "₹4/kg"); the marketplace never does
// arithmetic on them. Farmer is a denormalized display name supplied by the
// client, not a reference to an account.
type Listing struct {
	ID          string
	Title       string
	WasteType   string
	Quantity    string
	Price       string
	Location    string
	Farmer      string
	Image       string
	Description string
	Verified    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains the client-supplied fields for a new listing.
type CreateParams struct {
	Title       string `json:"title"`
	WasteType   string `json:"type"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Location    string `json:"location"`
	Farmer      string `json:"farmer"`
	Image       string `json:"image"`
	Description string `json:"description"`
}
