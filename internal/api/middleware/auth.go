package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/trendsim/trendsim/internal/api/response"
	"github.com/trendsim/trendsim/internal/core"
)

const apiKeyHeader = "X-API-Key"

// APIKeyAuth guards the API with a shared key carried in the X-API-Key
// header. An empty configured key disables the check entirely, which is
// how local and test setups run.
func APIKeyAuth(key string) func(http.Handler) http.Handler {
	expected := []byte(key)
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(apiKeyHeader)
			switch {
			case got == "":
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrConfigMissing, nil))
			case subtle.ConstantTimeCompare([]byte(got), expected) != 1:
				// Constant-time compare so response timing leaks nothing
				// about the key.
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrConfigInvalid, nil))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
