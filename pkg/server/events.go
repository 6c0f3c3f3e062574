package server

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/messaging"
)

// tabEvents streams the messages sent to a tab as server-sent events named
// after their action. A "ready" event is sent once the listener is attached.
func (s *Server) tabEvents(c *gin.Context) {
	if _, ok := s.tab(c); !ok {
		return
	}
	id := c.Param("id")

	ch, cancel := s.deps.Hub.Subscribe(id)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", id)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			data, err := messaging.Encode(msg)
			if err != nil {
				logger.L().Warn("dropping unencodable message", zap.String("tab", id), zap.Error(err))
				return true
			}
			c.SSEvent(msg.Action(), string(data))
			return true
		}
	})
}
