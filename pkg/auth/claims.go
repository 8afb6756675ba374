package auth

import (
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is the input for minting a staff JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	Role       enums.UserRole
	GuideID    *uuid.UUID
	ResellerID *uuid.UUID
	JTI        string
}

// AccessTokenClaims is the typed JWT body issued to staff clients.
type AccessTokenClaims struct {
	UserID     uuid.UUID      `json:"user_id"`
	Role       enums.UserRole `json:"role"`
	GuideID    *uuid.UUID     `json:"guide_id,omitempty"`
	ResellerID *uuid.UUID     `json:"reseller_id,omitempty"`
	jwt.RegisteredClaims
}
