package auth

import (
	"net/http"
	"time"

	"github.com/travelearn/tne-admin/internal/shared"
)

// LoginPath is where anonymous requests are sent.
const LoginPath = "/auth/login"

// RequireLogin redirects sessions without a live backend token to the login
// page. Expired tokens are cleared first. Non-GET requests get 401.
func RequireLogin(now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			token := sess.Token()
			if token != "" {
				if id, err := ParseIdentity(token); err == nil && id.Expired(now()) {
					sess.SetToken("")
					sess.Delete(shared.AdminNameKey)
					sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Your session has expired. Please sign in again."})
					token = ""
				}
			}
			if token == "" {
				if r.Method != http.MethodGet && r.Method != http.MethodHead {
					http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
