package middleware

import "net/http"

// UserIDHeader is the HTTP header carrying the gateway-verified user id.
const UserIDHeader = "X-User-ID"

// UserIdentity lifts the X-User-ID header into the request context. The
// gateway has already authenticated the caller, so the value is trusted
// as-is; downstream consumers (per-user rate limiting, request logging)
// read it back with GetUserID. Requests without the header pass through
// unchanged and fall back to IP-keyed limiting.
func UserIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(UserIDHeader); id != "" {
			r = r.WithContext(SetUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
