package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// apiKeyHeader is accepted alongside Authorization: Bearer for clients that cannot set
// the Authorization header.
const apiKeyHeader = "X-API-Key"

// publicPaths serve health checks and metric scrapes without a key.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// AuthConfig configures APIKeyAuth.
type AuthConfig struct {
	// Keys are the accepted API keys. No non-empty key disables authentication.
	Keys []string
	// Stub opens /api while the server only answers with stub bodies, so clients
	// without a key still learn to keep their data locally.
	Stub bool
}

// APIKeyAuth rejects requests that carry no valid API key with 401.
// Keys are compared as SHA-256 digests in constant time against every configured key.
func APIKeyAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	digests := make([][sha256.Size]byte, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok || (cfg.Stub && strings.HasPrefix(r.URL.Path, "/api/")) {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := credential(r)
			if msg == "" && !matchesAny(digests, token) {
				msg = "invalid api key"
			}
			if msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="ilpcoach"`)
				writeError(w, http.StatusUnauthorized, codeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// credential extracts the presented key, or a reason why none was usable.
func credential(r *http.Request) (string, string) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", "authorization header must use Bearer scheme"
		}
		if token = strings.TrimSpace(token); token == "" {
			return "", "empty bearer token"
		}
		return token, ""
	}
	if key := r.Header.Get(apiKeyHeader); key != "" {
		return key, ""
	}
	return "", "missing api key"
}

func matchesAny(digests [][sha256.Size]byte, token string) bool {
	sum := sha256.Sum256([]byte(token))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(sum[:], digests[i][:])
	}
	return found == 1
}
