package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/jamrock-club/jamrock-backend/api/responses"
	"github.com/jamrock-club/jamrock-backend/pkg/config"
	"github.com/jamrock-club/jamrock-backend/pkg/db"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Jamrock-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, pinger db.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Jamrock-Env", cfg.App.Env)

		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
