package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CookieName    = "gazeta_session"
	CtxSessionKey = "auth_session"
	LoginPath     = "/admin"
	DashboardPath = "/admin/dashboard"
)

// TokenFrom reads the session token from the cookie, or from a bearer header.
func TokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(CookieName); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// LoadSession attaches the session to the context when the token is valid.
// It never rejects the request.
func LoadSession(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, err := svc.SessionFromToken(TokenFrom(c)); err == nil {
			c.Set(CtxSessionKey, sess)
		}
		c.Next()
	}
}

// RequireSession sends visitors without a valid session to the login page.
func RequireSession(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := svc.SessionFromToken(TokenFrom(c))
		if err != nil {
			if c.Request.Method == http.MethodGet {
				c.Redirect(http.StatusSeeOther, LoginPath)
			} else {
				c.String(http.StatusUnauthorized, "unauthorized")
			}
			c.Abort()
			return
		}
		c.Set(CtxSessionKey, sess)
		c.Next()
	}
}

func GetSession(c *gin.Context) (Session, bool) {
	v, ok := c.Get(CtxSessionKey)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	return sess, ok
}

func SetCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, maxAge, "/", "", secure, true)
}

func ClearCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
}
