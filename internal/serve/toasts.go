package serve

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gazeta/internal/auth"
)

// handleToastStream sends the session's toast queue as a "toasts" event
// every time it changes, starting with its current content.
func (s *Server) handleToastStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for ts := range s.queue(c).Watch(c.Request.Context()) {
		data, err := json.Marshal(ts)
		if err != nil {
			return
		}
		writeEvent(c, "toasts", string(data))
	}
}

func (s *Server) handleDismiss(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	s.queue(c).Dismiss(id)
	s.dismissed(c)
}

func (s *Server) handleDismissAll(c *gin.Context) {
	s.queue(c).DismissAll()
	s.dismissed(c)
}

// dismissed answers scripts with 204 and plain form posts with a redirect
// back to where they came from.
func (s *Server) dismissed(c *gin.Context) {
	if c.GetHeader("X-Requested-With") != "" || wantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	back := c.Request.Referer()
	if back == "" {
		back = auth.DashboardPath
	}
	c.Redirect(http.StatusSeeOther, back)
}
