package forms

import (
	"time"

	"github.com/robertarktes/event-registration/internal/domain"
)

const (
	// BasePriceCents is the price of one shirt.
	BasePriceCents = 2500
	MaxImageBytes  = 5 * 1024 * 1024
)

var Sizes = []string{"XS", "S", "M", "L", "XL", "XXL", "3XL"}

// ImageTransform positions the uploaded artwork inside the print area.
type ImageTransform struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type TshirtProduct struct {
	Selected       bool           `json:"selected"`
	Quantity       int            `json:"quantity" validate:"gte=1,lte=99"`
	Size           string         `json:"size" validate:"oneof=XS S M L XL XXL 3XL"`
	CustomImage    string         `json:"customImage,omitempty"`
	ImageBytes     int64          `json:"imageBytes" validate:"gte=0,lte=5242880"`
	ImageTransform ImageTransform `json:"imgTransform"`
}

type TshirtOrder struct {
	FirstName     string        `json:"firstName" validate:"required"`
	LastName      string        `json:"lastName,omitempty"`
	Email         string        `json:"email" validate:"loose_email"`
	AreaCode      string        `json:"areaCode,omitempty"`
	PhoneNumber   string        `json:"phoneNumber" validate:"required"`
	Address1      string        `json:"address1" validate:"required"`
	Address2      string        `json:"address2,omitempty"`
	City          string        `json:"city" validate:"required"`
	State         string        `json:"state,omitempty"`
	Zip           string        `json:"zip" validate:"required"`
	PaymentMethod string        `json:"paymentMethod" validate:"oneof=card paypal"`
	Product       TshirtProduct `json:"product"`
}

var tshirtOrder = []string{"firstName", "email", "phoneNumber", "address1", "city", "zip", "paymentMethod", "quantity", "size", "imageBytes"}

var tshirtMessages = messages{
	"firstName":     "Required",
	"email":         "Invalid email",
	"phoneNumber":   "Required",
	"address1":      "Required",
	"city":          "Required",
	"zip":           "Required",
	"paymentMethod": "Choose a payment method",
	"quantity":      "Quantity must be between 1 and 99",
	"size":          "Choose a size",
	"imageBytes":    "File size too large. Limit 5MB.",
}

func (o *TshirtOrder) Kind() Kind { return KindTshirtOrder }

func (o *TshirtOrder) Normalize(time.Time) {
	if o.PaymentMethod == "" {
		o.PaymentMethod = "card"
	}
	if o.Product.Quantity == 0 {
		o.Product.Quantity = 1
	}
	if o.Product.Size == "" {
		o.Product.Size = "L"
	}
	if o.Product.ImageTransform.Scale == 0 {
		o.Product.ImageTransform.Scale = 1
	}
}

func (o *TshirtOrder) Validate() ([]domain.FieldError, error) {
	return check(o, tshirtOrder, tshirtMessages)
}

// TotalCents is the order total; an unselected product costs nothing.
func (o *TshirtOrder) TotalCents() int64 {
	if !o.Product.Selected {
		return 0
	}
	return int64(o.Product.Quantity) * BasePriceCents
}
