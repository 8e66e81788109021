package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mkoval/dexbook/internal/api/dto"
	"github.com/mkoval/dexbook/internal/event"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// addresses are self-reported anyway, the feed is public
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS streams every engine event to the client as JSON. Clients filter
// by pair themselves; a client that falls behind the hub buffer misses
// events rather than stalling the engine.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	// read loop only notices disconnects and control frames
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-sub.Chan():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WSWriteTimeout))
			if err := conn.WriteJSON(convertEvent(ev)); err != nil {
				return
			}
		}
	}
}

func convertEvent(ev event.Event) dto.EventMessage {
	msg := dto.EventMessage{
		Type:    string(ev.Type),
		Pair:    ev.Pair,
		OrderID: ev.OrderID,
	}
	if ev.Order != nil {
		o := convertOrder(ev.Order)
		msg.Order = &o
	}
	if len(ev.Trades) > 0 {
		msg.Trades = convertTrades(ev.Trades)
	}
	return msg
}
