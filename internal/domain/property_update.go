package domain

import (
	"fmt"
	"strings"
)

// PropertyUpdate is one auditable change to a property. The set of commands
// is closed: Rename, Reprice, Relocate, Resize, Describe and Restatus.
type PropertyUpdate interface {
	Apply(p *Property) error
	Name() string
}

type Rename struct{ NewName string }

func (c Rename) Name() string { return "rename" }

func (c Rename) Apply(p *Property) error {
	name := strings.TrimSpace(c.NewName)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	p.Name = name
	return nil
}

type Reprice struct{ PricePerDay float64 }

func (c Reprice) Name() string { return "reprice" }

func (c Reprice) Apply(p *Property) error {
	if c.PricePerDay <= 0 {
		return fmt.Errorf("%w: price per day must be positive", ErrInvalidInput)
	}
	p.PricePerDay = c.PricePerDay
	return nil
}

type Relocate struct{ Location string }

func (c Relocate) Name() string { return "relocate" }

func (c Relocate) Apply(p *Property) error {
	p.Location = strings.TrimSpace(c.Location)
	return nil
}

type Resize struct{ Capacity int32 }

func (c Resize) Name() string { return "resize" }

func (c Resize) Apply(p *Property) error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}
	p.Capacity = c.Capacity
	return nil
}

// Describe replaces the optional presentation fields. Nil fields are kept.
type Describe struct {
	Description *string
	ImageURL    *string
	Rating      *float64
}

func (c Describe) Name() string { return "describe" }

func (c Describe) Apply(p *Property) error {
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.ImageURL != nil {
		p.ImageURL = *c.ImageURL
	}
	if c.Rating != nil {
		if *c.Rating < 0 || *c.Rating > 5 {
			return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidInput)
		}
		r := *c.Rating
		p.Rating = &r
	}
	return nil
}

type Restatus struct{ Status PropertyStatus }

func (c Restatus) Name() string { return "restatus" }

func (c Restatus) Apply(p *Property) error {
	if !c.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	if !p.Status.CanTransitionTo(c.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, c.Status)
	}
	p.Status = c.Status
	return nil
}
