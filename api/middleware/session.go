package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Tharun-raj-u/WebScrapper/controller"
	"github.com/Tharun-raj-u/WebScrapper/session"
)

const (
	// SessionCookie carries the browser session id.
	SessionCookie = "webscrapper_session"

	// SessionHeader lets API clients without cookies pin a session.
	SessionHeader = "X-Session-ID"

	sessionIDKey  = "session_id"
	controllerKey = "controller"
)

// Session attaches the caller's controller to the context, creating a
// session on first contact. The id is echoed back as a cookie and in the
// X-Session-ID header.
func Session(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			id, _ = c.Cookie(SessionCookie)
		}

		id, ctrl := store.Get(id)

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
		c.Header(SessionHeader, id)

		c.Set(sessionIDKey, id)
		c.Set(controllerKey, ctrl)
		c.Next()
	}
}

// Controller returns the session controller set by Session.
func Controller(c *gin.Context) *controller.Controller {
	return c.MustGet(controllerKey).(*controller.Controller)
}
