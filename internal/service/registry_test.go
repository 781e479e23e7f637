package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/state"
)

func TestRegistryService_AddProperty(t *testing.T) {
	ctx := context.Background()

	t.Run("next id follows the max", func(t *testing.T) {
		store, _ := newTestStore(t, state.Snapshot{Properties: []domain.Property{
			{ID: 1, Name: "A", Status: domain.PropertyStatusApproved},
			{ID: 3, Name: "C", Status: domain.PropertyStatusApproved},
		}})
		svc := NewRegistryService(store, fixedClock(testNow))

		p, err := svc.AddProperty(ctx, domain.NewProperty{Name: "Sítio Novo", OwnerName: "Carla", Capacity: 40, PricePerDay: 250})
		require.NoError(t, err)
		assert.Equal(t, int32(4), p.ID)
		assert.Equal(t, domain.PropertyStatusPending, p.Status)
		assert.Equal(t, "2024-11-01", p.RegisteredAt)
		assert.Zero(t, p.ReservationCount)
		assert.Zero(t, p.Revenue)

		got, err := svc.GetProperty(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, *p, *got)
	})

	t.Run("first property gets id 1", func(t *testing.T) {
		store, _ := newTestStore(t, state.Snapshot{})
		svc := NewRegistryService(store, fixedClock(testNow))

		p, err := svc.AddProperty(ctx, domain.NewProperty{Name: "Primeira"})
		require.NoError(t, err)
		assert.Equal(t, int32(1), p.ID)
	})

	t.Run("duplicate names are allowed", func(t *testing.T) {
		store, _ := newTestStore(t, state.DemoSeed())
		svc := NewRegistryService(store, nil)

		_, err := svc.AddProperty(ctx, domain.NewProperty{Name: "Chácara Vista Verde"})
		require.NoError(t, err)
		all, err := svc.ListProperties(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})
}

func TestRegistryService_UpdatePropertyStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("approve pending", func(t *testing.T) {
		store, _ := newTestStore(t, state.DemoSeed())
		svc := NewRegistryService(store, nil)

		require.NoError(t, svc.UpdatePropertyStatus(ctx, 3, domain.PropertyStatusApproved))
		p, err := svc.GetProperty(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.PropertyStatusApproved, p.Status)
	})

	t.Run("missing id leaves registry unchanged", func(t *testing.T) {
		store, _ := newTestStore(t, state.DemoSeed())
		svc := NewRegistryService(store, nil)
		before := store.View()

		err := svc.UpdatePropertyStatus(ctx, 999, domain.PropertyStatusApproved)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, before, store.View())
	})

	t.Run("approved is final", func(t *testing.T) {
		store, _ := newTestStore(t, state.DemoSeed())
		svc := NewRegistryService(store, nil)

		err := svc.UpdatePropertyStatus(ctx, 1, domain.PropertyStatusRejected)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestRegistryService_UpdateProperty(t *testing.T) {
	ctx := context.Background()

	t.Run("applies every command", func(t *testing.T) {
		store, _ := newTestStore(t, state.DemoSeed())
		svc := NewRegistryService(store, nil)
		desc := "Lago e trilhas"

		err := svc.UpdateProperty(ctx, 2,
			domain.Rename{NewName: "Recanto das Águas Claras"},
			domain.Reprice{PricePerDay: 500},
			domain.Relocate{Location: "Nazaré Paulista, SP"},
			domain.Resize{Capacity: 90},
			domain.Describe{Description: &desc},
		)
		require.NoError(t, err)

		p, err := svc.GetProperty(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Recanto das Águas Claras", p.Name)
		assert.Equal(t, 500.0, p.PricePerDay)
		assert.Equal(t, "Nazaré Paulista, SP", p.Location)
		assert.Equal(t, int32(90), p.Capacity)
		assert.Equal(t, desc, p.Description)
		assert.Equal(t, int32(1), p.ReservationCount, "counters are untouched")
	})

	t.Run("one failing command rejects the batch", func(t *testing.T) {
		store, _ := newTestStore(t, state.DemoSeed())
		svc := NewRegistryService(store, nil)
		before := store.View()

		err := svc.UpdateProperty(ctx, 2, domain.Rename{NewName: "Outro"}, domain.Reprice{PricePerDay: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, before, store.View())
	})

	t.Run("persistence failure", func(t *testing.T) {
		store := newFailingStore(t, state.DemoSeed())
		svc := NewRegistryService(store, nil)
		before := store.View()

		err := svc.UpdateProperty(ctx, 2, domain.Rename{NewName: "Outro"})
		assert.ErrorIs(t, err, errDiskFull)
		assert.Equal(t, before, store.View())
	})
}

func TestRegistryService_RecordBooking(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, state.DemoSeed())
	svc := NewRegistryService(store, nil)

	require.NoError(t, svc.RecordBooking(ctx, 2, 450))
	p, err := svc.GetProperty(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.ReservationCount)
	assert.Equal(t, 1350.0, p.Revenue)

	assert.ErrorIs(t, svc.RecordBooking(ctx, 42, 100), domain.ErrNotFound)
	assert.ErrorIs(t, svc.RecordBooking(ctx, 2, -5), domain.ErrInvalidInput)
}

func TestRegistryService_Lists(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, state.DemoSeed())
	svc := NewRegistryService(store, nil)

	approved, err := svc.ListPropertiesByStatus(ctx, domain.PropertyStatusApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	_, err = svc.ListPropertiesByStatus(ctx, "approved")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	owned, err := svc.ListPropertiesByOwner(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	none, err := svc.ListPropertiesByOwner(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.GetProperty(ctx, 77)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
