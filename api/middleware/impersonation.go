package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/canyonbook-backend/api/responses"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/google/uuid"
)

const actAsGuideHeader = "X-Act-As-Guide"

// ActAsGuide lets an admin scope a request to one guide through the
// X-Act-As-Guide header. Other roles sending the header are refused.
func ActAsGuide(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(actAsGuideHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, ok := AppSessionFromContext(r.Context())
			if !ok || s.Role != enums.RoleAdmin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can act as a guide"))
				return
			}
			guideID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid guide id").
					WithDetails(map[string]any{"header": actAsGuideHeader}))
				return
			}
			s.GuideID = &guideID
			s.Impersonating = true

			ctx := WithAppSession(r.Context(), s)
			if logg != nil {
				ctx = logg.WithField(ctx, "act_as_guide", guideID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
