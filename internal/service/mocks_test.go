package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/state"
	"chacara-backend/internal/storage"
)

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendReservationReceived(ctx context.Context, r domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockEmailService) SendPaymentConfirmed(ctx context.Context, p domain.Payment, clientEmail string) error {
	args := m.Called(ctx, p, clientEmail)
	return args.Error(0)
}
func (m *MockEmailService) SendPaymentOverdue(ctx context.Context, p domain.Payment, clientEmail string) error {
	args := m.Called(ctx, p, clientEmail)
	return args.Error(0)
}

var errDiskFull = errors.New("disk full")

// failingSlots accepts reads but rejects every write.
type failingSlots struct {
	*storage.MemoryStorage
}

func (f failingSlots) Save(ctx context.Context, slot string, data []byte) error { return errDiskFull }
func (f failingSlots) SaveMany(ctx context.Context, writes map[string][]byte) error {
	return errDiskFull
}
func (f failingSlots) Delete(ctx context.Context, slot string) error { return errDiskFull }

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

var testNow = time.Date(2024, 11, 1, 10, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, seed state.Snapshot) (*state.Store, *storage.MemoryStorage) {
	t.Helper()
	slots := storage.NewMemoryStorage()
	store := state.NewStore(slots)
	require.NoError(t, store.Load(context.Background(), seed))
	return store, slots
}

func newFailingStore(t *testing.T, seed state.Snapshot) *state.Store {
	t.Helper()
	store := state.NewStore(failingSlots{storage.NewMemoryStorage()})
	require.NoError(t, store.Load(context.Background(), seed))
	return store
}

// assertPaidMirrored checks that every paid payment's reservation is paid too.
func assertPaidMirrored(t *testing.T, snap state.Snapshot) {
	t.Helper()
	for _, p := range snap.Payments {
		if p.Status != domain.PaymentStatusPaid {
			continue
		}
		i := snap.ReservationIndex(p.ReservationID)
		require.GreaterOrEqual(t, i, 0, "payment %s has no reservation", p.ID)
		require.Equal(t, domain.PaymentStatusPaid, snap.Reservations[i].PaymentStatus, "payment %s", p.ID)
	}
}
