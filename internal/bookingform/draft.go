package bookingform

import (
	"strings"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
)

// Draft is the in-progress booking owned by a single form instance.
type Draft struct {
	BookingID       string
	SessionID       string
	ProductID       string `validate:"required"`
	FirstName       string `validate:"required,max=120"`
	LastName        string `validate:"required,max=120"`
	Email           string `validate:"omitempty,email"`
	Phone           string `validate:"omitempty,max=40"`
	Participants    int    `validate:"gte=1"`
	ResellerBooking bool
	ResellerID      string `validate:"required_if=ResellerBooking true"`
	Notes           string `validate:"omitempty,max=2000"`
	AddOns          []pricing.AddOn
}

// Target is what the draft is priced and capacity-checked against.
type Target struct {
	ProductID         string
	Product           pricing.Product
	RemainingCapacity int
}

func (d Draft) clone() Draft {
	c := d
	if d.AddOns != nil {
		c.AddOns = append([]pricing.AddOn(nil), d.AddOns...)
	}
	return c
}

func (d *Draft) normalize() {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.ResellerID = strings.TrimSpace(d.ResellerID)
}
