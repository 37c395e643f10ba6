// Package wsgrader provides a WebSocket grading endpoint that streams
// per function progress while a run is in flight.
package wsgrader

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/criyle/go-grader/cmd/go-grader/model"
	"github.com/criyle/go-grader/runner"
	"github.com/criyle/go-grader/worker"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsHandle struct {
	worker worker.Worker
	logger *zap.Logger
}

// New creates a WebSocket grading handle
func New(worker worker.Worker, logger *zap.Logger) *wsHandle {
	return &wsHandle{
		worker: worker,
		logger: logger,
	}
}

func (h *wsHandle) Register(r *gin.Engine) {
	r.GET("/grade/ws", h.handleWS)
}

func (h *wsHandle) handleWS(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, err.Error())
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var req model.GradeRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.logger.Debug("ws read", zap.Error(err))
		return
	}

	// the send loop owns the connection; grading events funnel
	// through sendCh
	sendCh := make(chan model.ProgressEvent, 16)
	observe := func(e runner.Event) {
		ev := e
		sendCh <- model.ProgressEvent{Type: "progress", Progress: &ev}
	}

	rtCh := h.worker.Execute(ctx.Request.Context(), model.ConvertRequest(&req), observe)
	go func() {
		rt := <-rtCh
		sendCh <- model.ProgressEvent{Type: "final", Final: model.ConvertResponse(rt)}
		close(sendCh)
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-sendCh:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("ws write", zap.Error(err))
				return
			}
			if ev.Type == "final" {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
