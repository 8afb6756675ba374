package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/angelmondragon/canyonbook-backend/api/responses"
	"github.com/angelmondragon/canyonbook-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/canyonbook-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-CanyonBook-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and answers 503 naming the ones that failed.
func HealthReady(cfg *config.Config, deps map[string]pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var down []string
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				logg.Warn(logg.WithField(ctx, "dependency", name), "readiness ping failed")
				down = append(down, name)
			}
		}
		if len(down) > 0 {
			sort.Strings(down)
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"down": down})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
