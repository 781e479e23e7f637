package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/utils"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return validate.Struct(dst)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createPropertyRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	OwnerName   string   `json:"owner_name" validate:"max=200"`
	Location    string   `json:"location" validate:"required,max=300"`
	Capacity    int32    `json:"capacity" validate:"required,gte=1"`
	PricePerDay float64  `json:"price_per_day" validate:"required,gt=0"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
	Description string   `json:"description" validate:"max=2000"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// updatePropertyRequest is a partial update. Each present field becomes one
// property update command.
type updatePropertyRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Location    *string  `json:"location" validate:"omitempty,max=300"`
	Capacity    *int32   `json:"capacity" validate:"omitempty,gte=1"`
	PricePerDay *float64 `json:"price_per_day" validate:"omitempty,gt=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

func (req updatePropertyRequest) commands() []domain.PropertyUpdate {
	var cmds []domain.PropertyUpdate
	if req.Name != nil {
		cmds = append(cmds, domain.Rename{NewName: *req.Name})
	}
	if req.PricePerDay != nil {
		cmds = append(cmds, domain.Reprice{PricePerDay: *req.PricePerDay})
	}
	if req.Location != nil {
		cmds = append(cmds, domain.Relocate{Location: *req.Location})
	}
	if req.Capacity != nil {
		cmds = append(cmds, domain.Resize{Capacity: *req.Capacity})
	}
	if req.Description != nil || req.ImageURL != nil || req.Rating != nil {
		cmds = append(cmds, domain.Describe{Description: req.Description, ImageURL: req.ImageURL, Rating: req.Rating})
	}
	return cmds
}

type propertyStatusRequest struct {
	Status domain.PropertyStatus `json:"status" validate:"required,oneof=pendente aprovada rejeitada"`
}

type createReservationRequest struct {
	PropertyID  int32  `json:"property_id" validate:"required,gte=1"`
	ClientName  string `json:"client_name" validate:"required,max=200"`
	ClientEmail string `json:"client_email" validate:"required,email"`
	CheckIn     string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut    string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests      int32  `json:"guests" validate:"required,gte=1"`
}

// nights validates the stay and returns its length.
func (req createReservationRequest) nights() (int, error) {
	return utils.NightsBetween(req.CheckIn, req.CheckOut)
}

type reservationStatusRequest struct {
	Status domain.ReservationStatus `json:"status" validate:"required,oneof=confirmada pendente cancelada"`
}

type markOverdueRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

type currentReservationRequest struct {
	ReservationID string `json:"reservation_id"`
}
