package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"chacara-backend/internal/logger"
	"chacara-backend/internal/storage"
)

// ErrStaleState is returned when a slot changed in the backend between the
// pre-write check and the write itself.
var ErrStaleState = errors.New("state changed in the backend")

// Store owns the in-memory collections and mirrors them to a SlotStore.
// All mutations go through Update, which holds one lock across every
// collection so multi-collection changes are published together.
//
// persisted holds the bytes last read from or written to each slot. Before
// every mutation the slots are read again; if another writer replaced any of
// them the in-memory copy is refreshed first, so a write never discards data
// this store has not seen.
type Store struct {
	mu        sync.RWMutex
	slots     storage.SlotStore
	state     Snapshot
	persisted map[string][]byte
	loaded    bool
}

func NewStore(slots storage.SlotStore) *Store {
	return &Store{slots: slots, persisted: map[string][]byte{}}
}

var allSlots = []string{
	storage.SlotProperties,
	storage.SlotReservations,
	storage.SlotPayments,
	storage.SlotCurrentReservation,
	storage.SlotCurrentUser,
}

// Load rehydrates every collection from its slot. Collections whose slot has
// never been written start from the matching part of seed.
func (s *Store) Load(ctx context.Context, seed Snapshot) error {
	raw, err := s.readSlots(ctx, allSlots)
	if err != nil {
		return err
	}

	next, err := decodeSlots(raw, seed)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = next
	s.persisted = raw
	s.loaded = true
	s.mu.Unlock()

	logger.Info("State loaded",
		"backend", s.slots.Backend(),
		"properties", len(next.Properties),
		"reservations", len(next.Reservations),
		"payments", len(next.Payments))
	return nil
}

// decodeSlots overlays every slot present in raw onto a copy of base.
func decodeSlots(raw map[string][]byte, base Snapshot) (Snapshot, error) {
	next := base.Clone()
	decode := func(slot string, dst any) error {
		data, ok := raw[slot]
		if !ok {
			return nil
		}
		if err := storage.Decode(data, dst); err != nil {
			return fmt.Errorf("slot %s: %w", slot, err)
		}
		return nil
	}

	if err := decode(storage.SlotProperties, &next.Properties); err != nil {
		return Snapshot{}, err
	}
	if err := decode(storage.SlotReservations, &next.Reservations); err != nil {
		return Snapshot{}, err
	}
	if err := decode(storage.SlotPayments, &next.Payments); err != nil {
		return Snapshot{}, err
	}
	if err := decode(storage.SlotCurrentReservation, &next.CurrentReservation); err != nil {
		return Snapshot{}, err
	}
	if err := decode(storage.SlotCurrentUser, &next.CurrentUser); err != nil {
		return Snapshot{}, err
	}
	return next.Clone(), nil
}

// clearSlot resets the collection stored under slot.
func clearSlot(snap *Snapshot, slot string) {
	switch slot {
	case storage.SlotProperties:
		snap.Properties = nil
	case storage.SlotReservations:
		snap.Reservations = nil
	case storage.SlotPayments:
		snap.Payments = nil
	case storage.SlotCurrentReservation:
		snap.CurrentReservation = nil
	case storage.SlotCurrentUser:
		snap.CurrentUser = nil
	}
}

func (s *Store) readSlots(ctx context.Context, names []string) (map[string][]byte, error) {
	if bulk, ok := s.slots.(storage.BulkLoader); ok {
		raw, err := bulk.LoadMany(ctx, names)
		if err != nil {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		return raw, nil
	}

	raw := make(map[string][]byte, len(names))
	for _, slot := range names {
		data, ok, err := s.slots.Load(ctx, slot)
		if err != nil {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		if ok {
			raw[slot] = data
		}
	}
	return raw, nil
}

// changedSince lists the slots whose backend bytes differ from persisted.
func (s *Store) changedSince(raw map[string][]byte, names []string) []string {
	var changed []string
	for _, slot := range names {
		now, inBackend := raw[slot]
		seen, inMemory := s.persisted[slot]
		if inBackend != inMemory || !bytes.Equal(now, seen) {
			changed = append(changed, slot)
		}
	}
	return changed
}

// refresh replaces the collections another writer has changed. Caller holds mu.
func (s *Store) refresh(ctx context.Context) error {
	raw, err := s.readSlots(ctx, allSlots)
	if err != nil {
		return err
	}
	changed := s.changedSince(raw, allSlots)
	if len(changed) == 0 {
		return nil
	}

	base := s.state.Clone()
	for _, slot := range changed {
		if _, ok := raw[slot]; !ok {
			clearSlot(&base, slot)
		}
	}
	next, err := decodeSlots(raw, base)
	if err != nil {
		return err
	}

	logger.Warn("Slots changed by another writer, state refreshed", "backend", s.slots.Backend(), "slots", changed)
	s.state = next
	s.persisted = raw
	return nil
}

// Loaded reports whether Load has completed
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// View returns a deep copy of the current state.
func (s *Store) View() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update runs fn against a working copy of the state. If fn returns nil the
// changed collections are persisted and the copy becomes the current state.
// If fn or persistence fails the current state is left untouched.
func (s *Store) Update(ctx context.Context, fn func(snap *Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return err
	}

	work := s.state.Clone()
	if err := fn(&work); err != nil {
		return err
	}

	writes, deletes, err := changedSlots(s.state, work)
	if err != nil {
		return err
	}
	if len(writes) == 0 && len(deletes) == 0 {
		return nil
	}

	touched := append(make([]string, 0, len(writes)+len(deletes)), deletes...)
	for slot := range writes {
		touched = append(touched, slot)
	}
	current, err := s.readSlots(ctx, touched)
	if err != nil {
		return err
	}
	if stale := s.changedSince(current, touched); len(stale) > 0 {
		return fmt.Errorf("%w: %v", ErrStaleState, stale)
	}

	if len(writes) > 0 {
		if err := s.slots.SaveMany(ctx, writes); err != nil {
			return fmt.Errorf("failed to persist state: %w", err)
		}
		for slot, data := range writes {
			s.persisted[slot] = data
		}
	}
	for _, slot := range deletes {
		if err := s.slots.Delete(ctx, slot); err != nil {
			return fmt.Errorf("failed to clear slot %s: %w", slot, err)
		}
		delete(s.persisted, slot)
	}

	s.state = work
	return nil
}

// changedSlots encodes every collection that differs between prev and next.
// Selection slots that became nil are returned as deletes.
func changedSlots(prev, next Snapshot) (map[string][]byte, []string, error) {
	writes := make(map[string][]byte)
	var deletes []string

	add := func(slot string, before, after any) error {
		if reflect.DeepEqual(before, after) {
			return nil
		}
		data, err := storage.Encode(after)
		if err != nil {
			return err
		}
		writes[slot] = data
		return nil
	}

	if err := add(storage.SlotProperties, prev.Properties, next.Properties); err != nil {
		return nil, nil, err
	}
	if err := add(storage.SlotReservations, prev.Reservations, next.Reservations); err != nil {
		return nil, nil, err
	}
	if err := add(storage.SlotPayments, prev.Payments, next.Payments); err != nil {
		return nil, nil, err
	}

	if !reflect.DeepEqual(prev.CurrentReservation, next.CurrentReservation) {
		if next.CurrentReservation == nil {
			deletes = append(deletes, storage.SlotCurrentReservation)
		} else if err := add(storage.SlotCurrentReservation, prev.CurrentReservation, next.CurrentReservation); err != nil {
			return nil, nil, err
		}
	}
	if !reflect.DeepEqual(prev.CurrentUser, next.CurrentUser) {
		if next.CurrentUser == nil {
			deletes = append(deletes, storage.SlotCurrentUser)
		} else if err := add(storage.SlotCurrentUser, prev.CurrentUser, next.CurrentUser); err != nil {
			return nil, nil, err
		}
	}

	return writes, deletes, nil
}
