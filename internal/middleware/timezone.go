package middleware

import (
	"net/http"
	"strconv"

	"inventory-graphql/internal/timezone"
)

// TimezoneMiddleware resolves the caller's display timezone from the
// "timezone" cookie (signed minutes east of UTC) and stores the resulting
// location in the request context. Requests without the cookie, or with a
// value that is not an integer, resolve to UTC's offset behavior via the
// zero value.
func TimezoneMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			offsetMinutes := 0
			if cookie, err := r.Cookie(timezone.CookieName); err == nil {
				if parsed, err := strconv.Atoi(cookie.Value); err == nil {
					offsetMinutes = parsed
				}
			}

			loc := timezone.ResolveLocation(offsetMinutes)
			ctx := timezone.WithLocation(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
