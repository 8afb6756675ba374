package bookings

import (
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox"
	"github.com/google/uuid"
)

// Actor is the authenticated staff member a booking operation runs for.
type Actor struct {
	UserID     uuid.UUID
	Role       enums.UserRole
	GuideID    *uuid.UUID
	ResellerID *uuid.UUID
}

func (a Actor) isStaff() bool {
	return a.Role == enums.RoleAdmin || a.Role == enums.RoleGuide
}

// canSee reports whether the actor may read or change b. Resellers only see their own bookings.
func (a Actor) canSee(b *models.Booking) bool {
	if a.Role != enums.RoleReseller {
		return true
	}
	return a.ResellerID != nil && b.ResellerID != nil && *a.ResellerID == *b.ResellerID
}

func (a Actor) requireStaff(action string) error {
	if a.isStaff() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, action+" requires a staff role")
}

func (a Actor) ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: string(a.Role)}
}

func (a Actor) userPtr() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
