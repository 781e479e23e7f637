package domain

type PropertyStatus string

const (
	PropertyStatusPending  PropertyStatus = "pendente"
	PropertyStatusApproved PropertyStatus = "aprovada"
	PropertyStatusRejected PropertyStatus = "rejeitada"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusPending, PropertyStatusApproved, PropertyStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a property may move from s to next.
// Only pending properties are reviewed; approval and rejection are final.
func (s PropertyStatus) CanTransitionTo(next PropertyStatus) bool {
	if s == next {
		return true
	}
	return s == PropertyStatusPending && (next == PropertyStatusApproved || next == PropertyStatusRejected)
}

type Property struct {
	ID               int32          `json:"id"`
	Name             string         `json:"name"`
	OwnerName        string         `json:"owner_name"`
	OwnerID          *int32         `json:"owner_id,omitempty"`
	Location         string         `json:"location"`
	Capacity         int32          `json:"capacity"`
	PricePerDay      float64        `json:"price_per_day"`
	Status           PropertyStatus `json:"status"`
	ReservationCount int32          `json:"reservation_count"`
	Revenue          float64        `json:"revenue"`
	RegisteredAt     string         `json:"registered_at"`
	ImageURL         string         `json:"image_url,omitempty"`
	Description      string         `json:"description,omitempty"`
	Rating           *float64       `json:"rating,omitempty"`
}

// NewProperty carries the caller-supplied fields of a property registration.
type NewProperty struct {
	Name        string
	OwnerName   string
	OwnerID     *int32
	Location    string
	Capacity    int32
	PricePerDay float64
	ImageURL    string
	Description string
	Rating      *float64
}
