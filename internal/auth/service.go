package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/users"
	pkgAuth "github.com/angelmondragon/canyonbook-backend/pkg/auth"
	"github.com/angelmondragon/canyonbook-backend/pkg/auth/session"
	"github.com/angelmondragon/canyonbook-backend/pkg/config"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/security"
	"github.com/google/uuid"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, accessID string) error
}

type service struct {
	users     userRepository
	guides    guideLookup
	resellers resellerLookup
	session   sessionManager
	jwtCfg    config.JWTConfig
	pwCfg     config.PasswordConfig
	logg      *logger.Logger
	now       func() time.Time
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type guideLookup interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Guide, error)
}

type resellerLookup interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Reseller, error)
}

type sessionManager interface {
	Generate(ctx context.Context, userID, accessID string) (string, error)
	Rotate(ctx context.Context, userID, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, userID, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	GuideRepo      guideLookup
	ResellerRepo   resellerLookup
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs the staff auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.GuideRepo == nil {
		return nil, fmt.Errorf("guide repository is required")
	}
	if params.ResellerRepo == nil {
		return nil, fmt.Errorf("reseller repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:     params.UserRepo,
		guides:    params.GuideRepo,
		resellers: params.ResellerRepo,
		session:   params.SessionManager,
		jwtCfg:    params.JWTConfig,
		pwCfg:     params.PasswordConfig,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// scope holds the profile ids carried in the access token.
type scope struct {
	guideID    *uuid.UUID
	resellerID *uuid.UUID
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	sc, err := s.resolveScope(ctx, user)
	if err != nil {
		return nil, err
	}

	now, err := s.recordLogin(ctx, user)
	if err != nil {
		return nil, err
	}
	s.upgradeHash(ctx, user, req.Password)

	accessID := session.NewAccessID()
	accessToken, err := s.mint(now, user, sc, accessID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, user.ID.String(), accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &LoginResponse{
		TokenPair:  TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		User:       users.FromModel(user),
		GuideID:    sc.guideID,
		ResellerID: sc.resellerID,
	}, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user == nil || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	sc, err := s.resolveScope(ctx, user)
	if err != nil {
		return nil, err
	}

	accessID, refreshToken, err := s.session.Rotate(ctx, user.ID.String(), claims.ID, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token is invalid or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}

	accessToken, err := s.mint(s.now(), user, sc, accessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) Logout(ctx context.Context, userID uuid.UUID, accessID string) error {
	if userID == uuid.Nil || strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, userID.String(), accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := users.NormalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// resolveScope attaches the guide or reseller profile to the role claim.
// A reseller login without an active reseller record is refused.
func (s *service) resolveScope(ctx context.Context, user *models.User) (scope, error) {
	switch user.Role {
	case enums.RoleAdmin:
		return scope{}, nil
	case enums.RoleGuide:
		guide, err := s.guides.FindByUserID(ctx, user.ID)
		if err != nil {
			return scope{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup guide profile")
		}
		if guide == nil {
			return scope{}, nil
		}
		id := guide.ID
		return scope{guideID: &id}, nil
	case enums.RoleReseller:
		reseller, err := s.resellers.FindByUserID(ctx, user.ID)
		if err != nil {
			return scope{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reseller profile")
		}
		if reseller == nil || !reseller.Active {
			return scope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		id := reseller.ID
		return scope{resellerID: &id}, nil
	default:
		return scope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
}

func (s *service) mint(now time.Time, user *models.User, sc scope, accessID string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:     user.ID,
		Role:       user.Role,
		GuideID:    sc.guideID,
		ResellerID: sc.resellerID,
		JTI:        accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) recordLogin(ctx context.Context, user *models.User) (time.Time, error) {
	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	return now, nil
}

// upgradeHash re-hashes the password when the configured argon parameters grew.
// Failures are logged and never block the login.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.pwCfg) {
		return
	}
	hash, err := security.HashPassword(password, s.pwCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", user.ID.String()), "password rehash failed")
		return
	}
	user.PasswordHash = hash
}
