package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/response"
)

// Token is the credential to forward upstream: an explicit bearer header
// first, then the session's unexpired token.
func Token(c *gin.Context, now time.Time) string {
	if token := BearerToken(c); token != "" {
		return token
	}
	return CurrentSession(c).Token(now)
}

// RequireCredential blocks requests without a credential. Page requests are
// sent to the login form; API requests get 401.
func RequireCredential(loginPath string, clock func() time.Time) gin.HandlerFunc {
	if clock == nil {
		clock = time.Now
	}
	return func(c *gin.Context) {
		if Token(c, clock()) != "" {
			c.Next()
			return
		}
		deny(c, loginPath, appErrors.ErrUnauthorized)
	}
}

func deny(c *gin.Context, loginPath string, err *appErrors.Error) {
	if loginPath != "" && WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, loginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	}
	response.Error(c, err)
	c.Abort()
}

// WantsHTML reports whether the request came from a page rather than an API
// client.
func WantsHTML(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return false
	}
	accept := c.GetHeader("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}
