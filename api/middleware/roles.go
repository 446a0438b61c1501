package middleware

import (
	"net/http"

	"github.com/jamrock-club/jamrock-backend/api/responses"
	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/logger"
)

// RequireStaff gates fulfilment endpoints to especialista and admin accounts.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.MemberRole(RoleFromContext(r.Context()))
			if role != enums.MemberRoleEspecialist && role != enums.MemberRoleAdmin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
