/*
auth.go - API key authentication and credential generation

PURPOSE:
  Company endpoints authenticate with an X-API-Key header. The
  middleware resolves the key to a company once per request and stores
  it in the request context; handlers pull it back out with
  companyFrom.

CREDENTIALS:
  - api keys:        sk_<base64url, 24 random bytes>, issued at signup
  - wallet addresses: w_<16 hex chars>
  - contract secrets: cs_<base64url, 24 random bytes>
  All come from crypto/rand. None are ever derivable from each other.

SEE ALSO:
  - handlers.go: Handlers behind the middleware
  - contracts.go: Contract events authenticate with X-Contract-Secret
    instead, checked per handler against the stored secret
*/
package api

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"

	"github.com/caohoangphucs/ATHENA/store/sqlite"
)

type contextKey string

const companyContextKey contextKey = "authed-company"

// RequireAPIKey resolves X-API-Key to a company and rejects the
// request with 401 when the key is missing or unknown, or 403 when the
// company has been deactivated.
func (h *Handler) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeError(w, http.StatusUnauthorized, "Missing X-API-Key header", nil)
			return
		}

		company, err := h.Store.GetCompanyByAPIKey(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to authenticate", err)
			return
		}
		if company == nil {
			writeError(w, http.StatusUnauthorized, "Invalid API key", nil)
			return
		}
		if !company.Active {
			writeError(w, http.StatusForbidden, "Company is deactivated", nil)
			return
		}

		ctx := context.WithValue(r.Context(), companyContextKey, company)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// companyFrom returns the company the middleware authenticated.
func companyFrom(ctx context.Context) *sqlite.Company {
	c, _ := ctx.Value(companyContextKey).(*sqlite.Company)
	return c
}

// secretsEqual compares secrets in constant time.
func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// =============================================================================
// CREDENTIAL GENERATION
// =============================================================================

func randomToken(prefix string, bytes int) string {
	b := make([]byte, bytes)
	rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}

// NewAPIKey issues a fresh company api key.
func NewAPIKey() string {
	return randomToken("sk_", 24)
}

// NewContractSecret issues a fresh contract secret.
func NewContractSecret() string {
	return randomToken("cs_", 24)
}

// NewWalletAddress issues a fresh chain address.
func NewWalletAddress() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "w_" + hex.EncodeToString(b)
}
