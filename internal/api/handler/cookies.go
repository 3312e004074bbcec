package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/titantech/kyc-gateway/internal/api/middleware"
)

const sessionCookie = "digilocker_session"

// CookieConfig controls the attributes of the cookies the API sets.
type CookieConfig struct {
	// Secure marks cookies HTTPS-only; enabled in production.
	Secure   bool
	TokenTTL time.Duration
}

func (cc CookieConfig) setToken(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cc.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (cc CookieConfig) clearToken(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// setSession stores the verification session handle. Lax so the cookie
// survives the redirect back from the DigiLocker consent page.
func (cc CookieConfig) setSession(c echo.Context, sessionID string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionID(c echo.Context) string {
	ck, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}
