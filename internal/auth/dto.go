package auth

import (
	"github.com/angelmondragon/canyonbook-backend/internal/users"
	"github.com/google/uuid"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest pairs the last access token with its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse contains the tokens and the profile ids the client scopes its views with.
type LoginResponse struct {
	TokenPair
	User       *users.UserDTO `json:"user"`
	GuideID    *uuid.UUID     `json:"guideId,omitempty"`
	ResellerID *uuid.UUID     `json:"resellerId,omitempty"`
}
