package storage

import "context"

// Slot names of the persisted collections.
const (
	SlotProperties         = "properties"
	SlotReservations       = "reservations"
	SlotPayments           = "payments"
	SlotCurrentReservation = "current_reservation"
	SlotCurrentUser        = "current_user"
)

// SlotStore persists serialized collections under flat string keys.
// Implementations: in-memory, local filesystem and PostgreSQL.
type SlotStore interface {
	// Load returns the bytes stored under slot. ok is false when the slot
	// has never been written or was deleted.
	Load(ctx context.Context, slot string) (data []byte, ok bool, err error)

	// Save overwrites a single slot.
	Save(ctx context.Context, slot string, data []byte) error

	// SaveMany overwrites several slots. Backends with transactions apply
	// all writes or none.
	SaveMany(ctx context.Context, writes map[string][]byte) error

	// Delete removes a slot. Deleting a missing slot is not an error.
	Delete(ctx context.Context, slot string) error

	// Backend names the implementation for logging
	Backend() string
}

// BulkLoader is implemented by backends that can read several slots at once.
type BulkLoader interface {
	LoadMany(ctx context.Context, slots []string) (map[string][]byte, error)
}
