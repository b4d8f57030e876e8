package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(cfg AuthConfig, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	APIKeyAuth(cfg)(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestAPIKeyAuth_NoKeysConfigured(t *testing.T) {
	for _, keys := range [][]string{nil, {"", ""}} {
		if rr := serveAuth(AuthConfig{Keys: keys}, "/api/catalog/stats", nil); rr.Code != http.StatusOK {
			t.Errorf("keys %q: status = %d", keys, rr.Code)
		}
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := AuthConfig{Keys: []string{"key1", "key2"}}
	tests := []struct {
		name    string
		headers map[string]string
		want    int
		msg     string
	}{
		{"bearer first key", map[string]string{"Authorization": "Bearer key1"}, http.StatusOK, ""},
		{"bearer second key", map[string]string{"Authorization": "Bearer key2"}, http.StatusOK, ""},
		{"scheme is case-insensitive", map[string]string{"Authorization": "bearer key1"}, http.StatusOK, ""},
		{"api key header", map[string]string{apiKeyHeader: "key2"}, http.StatusOK, ""},
		{"missing", nil, http.StatusUnauthorized, "missing api key"},
		{"basic scheme", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, http.StatusUnauthorized, "authorization header must use Bearer scheme"},
		{"empty bearer", map[string]string{"Authorization": "Bearer  "}, http.StatusUnauthorized, "empty bearer token"},
		{"wrong key", map[string]string{"Authorization": "Bearer wrong"}, http.StatusUnauthorized, "invalid api key"},
		{"key prefix", map[string]string{"Authorization": "Bearer key"}, http.StatusUnauthorized, "invalid api key"},
		{"wrong api key header", map[string]string{apiKeyHeader: "key3"}, http.StatusUnauthorized, "invalid api key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth(cfg, "/api/catalog/stats", tt.headers)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				return
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate")
			}
			var e ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if e.Code != codeUnauthorized || e.Message != tt.msg {
				t.Errorf("error = %+v, want message %q", e, tt.msg)
			}
		})
	}
}

func TestAPIKeyAuth_PublicPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		if rr := serveAuth(AuthConfig{Keys: []string{"secret"}}, path, nil); rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rr.Code)
		}
	}
}

func TestAPIKeyAuth_StubModeOpensAPI(t *testing.T) {
	stub := AuthConfig{Keys: []string{"secret"}, Stub: true}
	if rr := serveAuth(stub, "/api/rag/context", nil); rr.Code != http.StatusOK {
		t.Errorf("stub /api: status = %d", rr.Code)
	}
	if rr := serveAuth(stub, "/debug/pprof", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("stub non-api: status = %d", rr.Code)
	}
	live := AuthConfig{Keys: []string{"secret"}}
	if rr := serveAuth(live, "/api/rag/context", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("live /api: status = %d", rr.Code)
	}
}
