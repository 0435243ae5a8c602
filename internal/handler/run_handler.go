package handler

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"configllm/internal/config"
	"configllm/internal/domain"
	"configllm/internal/service"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// RunController is the part of the run service the API drives.
type RunController interface {
	Start(ctx context.Context, req service.RunRequest, onProgress service.ProgressFunc, onDone service.DoneFunc) (string, error)
	Cancel() error
	Status() service.RunState
	Subscribe() (<-chan service.Event, func())
}

// RunHandler handles run control endpoints.
type RunHandler struct {
	runs     RunController
	filesDir string
	defaults config.ProcessingConfig
}

// NewRunHandler creates a new RunHandler. File names in start requests are
// resolved inside filesDir; omitted parameters fall back to defaults.
func NewRunHandler(runs RunController, filesDir string, defaults config.ProcessingConfig) *RunHandler {
	return &RunHandler{runs: runs, filesDir: filesDir, defaults: defaults}
}

type startRunRequest struct {
	Files        []string `json:"files"`
	Iterations   *int     `json:"iterations"`
	DelaySeconds *float64 `json:"delay_seconds"`
}

type startRunResponse struct {
	RunID string `json:"run_id"`
}

// Start handles POST /api/v1/runs
func (h *RunHandler) Start(c *gin.Context) {
	var body startRunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	req := service.RunRequest{
		Iterations: h.defaults.NumIterations,
		Delay:      h.defaults.Delay(),
	}
	if body.Iterations != nil {
		req.Iterations = *body.Iterations
	}
	if body.DelaySeconds != nil {
		req.Delay = time.Duration(*body.DelaySeconds * float64(time.Second))
	}
	for _, name := range body.Files {
		if name == "" || name != filepath.Base(name) {
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", "file names must not contain path separators")
			return
		}
		req.Files = append(req.Files, filepath.Join(h.filesDir, name))
	}

	id, err := h.runs.Start(c.Request.Context(), req, nil, func(s *domain.RunSummary) {
		log.Printf("handler.RunHandler.Start: run %s %s: %s", s.RunID, s.Status, s.Message)
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, startRunResponse{RunID: id})
}

// Current handles GET /api/v1/runs/current
func (h *RunHandler) Current(c *gin.Context) {
	RespondOK(c, h.runs.Status())
}

// Cancel handles POST /api/v1/runs/current/cancel
func (h *RunHandler) Cancel(c *gin.Context) {
	if err := h.runs.Cancel(); err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"cancelling": true})
}

type statusMessage struct {
	Type  string           `json:"type"`
	State service.RunState `json:"state"`
}

// Events handles GET /api/v1/runs/events as a websocket stream. It sends
// the current state first, then every run event until a run ends or the
// client disconnects.
func (h *RunHandler) Events(c *gin.Context) {
	events, unsubscribe := h.runs.Subscribe()
	defer unsubscribe()

	conn, err := eventsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(v interface{}) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			return false
		}
		return conn.WriteJSON(v) == nil
	}

	if !write(statusMessage{Type: "status", State: h.runs.Status()}) {
		return
	}

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case e, ok := <-events:
			if !ok || !write(e) {
				return
			}
			if e.Type == service.EventDone {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"),
					time.Now().Add(wsWriteWait))
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
