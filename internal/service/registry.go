package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/state"
)

type registryService struct {
	store *state.Store
	now   Clock
}

func NewRegistryService(store *state.Store, now Clock) RegistryService {
	if now == nil {
		now = time.Now
	}
	return &registryService{store: store, now: now}
}

// AddProperty registers a property with the next free id, today's date and
// status pendente. Names are not checked for duplicates.
func (s *registryService) AddProperty(ctx context.Context, in domain.NewProperty) (*domain.Property, error) {
	logger.EnterMethod("registryService.AddProperty", "name", in.Name, "owner", in.OwnerName)

	var created domain.Property
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		var maxID int32
		for _, p := range snap.Properties {
			if p.ID > maxID {
				maxID = p.ID
			}
		}
		created = domain.Property{
			ID:           maxID + 1,
			Name:         strings.TrimSpace(in.Name),
			OwnerName:    in.OwnerName,
			OwnerID:      in.OwnerID,
			Location:     in.Location,
			Capacity:     in.Capacity,
			PricePerDay:  in.PricePerDay,
			Status:       domain.PropertyStatusPending,
			RegisteredAt: s.now().Format(domain.DateLayout),
			ImageURL:     in.ImageURL,
			Description:  in.Description,
			Rating:       in.Rating,
		}
		snap.Properties = append(snap.Properties, created)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("registryService.AddProperty", err)
		return nil, err
	}

	logger.ExitMethod("registryService.AddProperty", "propertyID", created.ID)
	return &created, nil
}

// UpdateProperty applies cmds in order. Either all of them apply or the
// registry is left unchanged.
func (s *registryService) UpdateProperty(ctx context.Context, id int32, cmds ...domain.PropertyUpdate) error {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name()
	}
	logger.EnterMethod("registryService.UpdateProperty", "propertyID", id, "commands", names)

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		i := snap.PropertyIndex(id)
		if i < 0 {
			return fmt.Errorf("property %d: %w", id, domain.ErrNotFound)
		}
		for _, c := range cmds {
			if err := c.Apply(&snap.Properties[i]); err != nil {
				return fmt.Errorf("%s property %d: %w", c.Name(), id, err)
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("registryService.UpdateProperty", err, "propertyID", id)
		return err
	}

	logger.ExitMethod("registryService.UpdateProperty", "propertyID", id)
	return nil
}

func (s *registryService) UpdatePropertyStatus(ctx context.Context, id int32, status domain.PropertyStatus) error {
	return s.UpdateProperty(ctx, id, domain.Restatus{Status: status})
}

// RecordBooking adds one booking and its amount to the property's counters.
func (s *registryService) RecordBooking(ctx context.Context, id int32, amount float64) error {
	logger.EnterMethod("registryService.RecordBooking", "propertyID", id, "amount", amount)

	if amount < 0 {
		err := fmt.Errorf("%w: booking amount cannot be negative", domain.ErrInvalidInput)
		logger.ExitMethodWithError("registryService.RecordBooking", err)
		return err
	}

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		i := snap.PropertyIndex(id)
		if i < 0 {
			return fmt.Errorf("property %d: %w", id, domain.ErrNotFound)
		}
		snap.Properties[i].ReservationCount++
		snap.Properties[i].Revenue += amount
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("registryService.RecordBooking", err, "propertyID", id)
		return err
	}

	logger.ExitMethod("registryService.RecordBooking", "propertyID", id)
	return nil
}

func (s *registryService) GetProperty(ctx context.Context, id int32) (*domain.Property, error) {
	snap := s.store.View()
	i := snap.PropertyIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("property %d: %w", id, domain.ErrNotFound)
	}
	return &snap.Properties[i], nil
}

func (s *registryService) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return s.store.View().Properties, nil
}

func (s *registryService) ListPropertiesByStatus(ctx context.Context, status domain.PropertyStatus) ([]domain.Property, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: property status %q", domain.ErrInvalidStatus, status)
	}
	return s.filter(func(p domain.Property) bool { return p.Status == status }), nil
}

func (s *registryService) ListPropertiesByOwner(ctx context.Context, ownerID int32) ([]domain.Property, error) {
	return s.filter(func(p domain.Property) bool { return p.OwnerID != nil && *p.OwnerID == ownerID }), nil
}

func (s *registryService) filter(keep func(domain.Property) bool) []domain.Property {
	snap := s.store.View()
	out := make([]domain.Property, 0, len(snap.Properties))
	for _, p := range snap.Properties {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
