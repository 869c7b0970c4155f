package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// SessionHeader carries the cart session for clients that do not keep cookies.
const SessionHeader = "X-Session-Id"

const maxSessionIDLength = 128

// Session resolves the browsing session that owns the guest cart. The header
// wins over the cookie; when neither is present a new session is minted and
// handed back in both.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "sf_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionFromRequest(r, cookieName)
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(SessionHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromRequest(r *http.Request, cookieName string) string {
	if v := cleanSessionID(r.Header.Get(SessionHeader)); v != "" {
		return v
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return cleanSessionID(c.Value)
	}
	return ""
}

func cleanSessionID(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > maxSessionIDLength {
		return ""
	}
	for _, ch := range v {
		if ch <= ' ' || ch == ';' || ch == ',' || ch == '"' || ch == '\\' || ch > '~' {
			return ""
		}
	}
	return v
}
