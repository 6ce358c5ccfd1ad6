package feed

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only broadcast data; origin checks stay with the CORS
	// layer in front of the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/feed", h.Subscribe)
}

// Subscribe upgrades the connection and streams reservation events until the
// client goes away.
func (h *Handler) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("feed upgrade failed")
		return
	}

	id := uuid.NewString()
	h.hub.Register(id, conn)
	log.Debug().Str("subscriber", id).Int("total", h.hub.SubscriberCount()).Msg("feed subscriber connected")

	// Drain client frames; the first read error means the peer is gone.
	go func() {
		defer h.hub.Unregister(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
