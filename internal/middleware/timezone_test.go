package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-graphql/internal/timezone"
)

func timezoneProbe(t *testing.T) (http.Handler, *[]*time.Location) {
	t.Helper()
	var seen []*time.Location
	handler := TimezoneMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, timezone.FromContext(r.Context()))
	}))
	return handler, &seen
}

func TestTimezoneMiddlewareResolvesCookieOffset(t *testing.T) {
	handler, seen := timezoneProbe(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	// +330 minutes east of UTC matches a fixed half-hour zone.
	req.AddCookie(&http.Cookie{Name: timezone.CookieName, Value: "330"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, *seen, 1)
	now := time.Now().In((*seen)[0])
	_, offset := now.Zone()
	assert.Equal(t, 330*60, offset)
}

func TestTimezoneMiddlewareDefaults(t *testing.T) {
	handler, seen := timezoneProbe(t)

	noCookie := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	handler.ServeHTTP(httptest.NewRecorder(), noCookie)

	garbage := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	garbage.AddCookie(&http.Cookie{Name: timezone.CookieName, Value: "not-a-number"})
	handler.ServeHTTP(httptest.NewRecorder(), garbage)

	require.Len(t, *seen, 2)
	for _, loc := range *seen {
		require.NotNil(t, loc)
		_, offset := time.Now().In(loc).Zone()
		assert.Equal(t, 0, offset)
	}
}
