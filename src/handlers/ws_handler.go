package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"retroview_services/src/detail"
	"retroview_services/src/gateway"
	m "retroview_services/src/models"
	"retroview_services/src/progressive"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1048,
	WriteBufferSize: 1048,
}

// WebSocketPayload is one protocol frame in either direction.
//
// Client -> server operations: "observe" (viewport visibility for a photo's
// detail region), "ladder" (start the staged reveal for a photo), "loaded" /
// "failed" (outcome of the rung the server last asked the client to load).
// Server -> client operations: "load", "reveal", "ladder_done",
// "ladder_aborted", "ladder_unavailable", "details", "details_error".
type WebSocketPayload struct {
	Operation string      `json:"operation"`
	PhotoID   string      `json:"photo_id,omitempty"`
	Index     int         `json:"index,omitempty"`
	Ratio     float64     `json:"ratio,omitempty"`
	Error     string      `json:"error,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// wsClient is one browsing session's connection state: one detail loader and
// at most one ladder scheduler per photo, for the lifetime of the page view.
type wsClient struct {
	conn *websocket.Conn
	gw   *gateway.Gateway

	writeMu sync.Mutex

	mu      sync.Mutex
	loaders map[string]*detail.Loader
	ladders map[string]*progressive.Scheduler
}

func WebSocketEndpointHandler(ctx context.Context, gw *gateway.Gateway) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("failed to upgrade websocket: %v", err)
			return
		}

		client := &wsClient{
			conn:    conn,
			gw:      gw,
			loaders: make(map[string]*detail.Loader),
			ladders: make(map[string]*progressive.Scheduler),
		}
		client.readLoop(ctx)
	})
}

func (c *wsClient) readLoop(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.conn.Close()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err) {
				log.Printf("websocket closed unexpectedly: %v", err)
			}
			return
		}

		var payload WebSocketPayload
		if err := json.Unmarshal(message, &payload); err != nil {
			log.Printf("websocket: undecodable frame: %v", err)
			continue
		}

		switch payload.Operation {
		case "observe":
			c.handleObserve(ctx, payload)
		case "ladder":
			c.handleLadder(ctx, payload)
		case "loaded":
			c.ackRung(payload.PhotoID, nil)
		case "failed":
			c.ackRung(payload.PhotoID, errors.New(payload.Error))
		default:
			log.Printf("websocket: unknown operation %q", payload.Operation)
		}
	}
}

// handleObserve feeds a visibility event into the photo's detail loader. The
// loader claims itself on the first qualifying event, so repeated observe
// frames for the same photo never cause a second fetch.
func (c *wsClient) handleObserve(ctx context.Context, payload WebSocketPayload) {
	photoID := payload.PhotoID
	if photoID == "" {
		return
	}

	c.mu.Lock()
	loader, ok := c.loaders[photoID]
	if !ok {
		loader = detail.NewLoader(func(ctx context.Context) (m.PhotoDetails, error) {
			return c.gw.PhotoDetails(ctx, photoID)
		})
		c.loaders[photoID] = loader
	}
	c.mu.Unlock()

	if !loader.Observe(ctx, payload.Ratio) {
		return
	}

	go func() {
		<-loader.Ready()
		result := loader.Result()
		if result.Err != nil {
			log.Printf("details for %s failed: %v", photoID, result.Err)
			c.write(WebSocketPayload{Operation: "details_error", PhotoID: photoID, Error: "Failed to fetch details."})
			return
		}
		c.write(WebSocketPayload{Operation: "details", PhotoID: photoID, Payload: detail.Render(result.Details)})
	}()
}

// handleLadder claims the photo's ladder slot and resolves it off the read
// loop, so a stalled sizes fetch cannot hold up observe frames or acks for
// other photos. A second ladder frame while the slot is claimed is ignored.
func (c *wsClient) handleLadder(ctx context.Context, payload WebSocketPayload) {
	photoID := payload.PhotoID
	if photoID == "" {
		return
	}

	c.mu.Lock()
	if _, ok := c.ladders[photoID]; ok {
		c.mu.Unlock()
		return
	}
	c.ladders[photoID] = nil // claim the slot before the sizes fetch resolves
	c.mu.Unlock()

	go c.startLadder(ctx, photoID)
}

func (c *wsClient) startLadder(ctx context.Context, photoID string) {
	sizes, err := c.gw.PhotoSizes(ctx, photoID)
	if err != nil || len(sizes) == 0 {
		if err != nil {
			log.Printf("sizes for %s failed: %v", photoID, err)
		}
		// Release the claim: only detail loads are terminal per page
		// view, so a later ladder frame may retry.
		c.mu.Lock()
		delete(c.ladders, photoID)
		c.mu.Unlock()
		c.write(WebSocketPayload{Operation: "ladder_unavailable", PhotoID: photoID})
		return
	}

	scheduler := progressive.NewScheduler(progressive.SelectRungs(sizes))
	c.mu.Lock()
	c.ladders[photoID] = scheduler
	c.mu.Unlock()

	c.runLadder(ctx, photoID, scheduler)
}

func (c *wsClient) runLadder(ctx context.Context, photoID string, scheduler *progressive.Scheduler) {
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for ev := range scheduler.Events() {
			op := "load"
			if ev.Kind == progressive.EventReveal {
				op = "reveal"
			}
			c.write(WebSocketPayload{Operation: op, PhotoID: photoID, Index: ev.Index, Payload: ev.Rung})
		}
	}()

	last, err := scheduler.Run(ctx)
	<-forwarded

	switch {
	case errors.Is(err, progressive.ErrAborted):
		// Keep the last revealed rung; the client clears its loading hint.
		c.write(WebSocketPayload{Operation: "ladder_aborted", PhotoID: photoID, Index: last})
	case err != nil:
		// Connection or page going away; nothing left to tell it.
	default:
		c.write(WebSocketPayload{Operation: "ladder_done", PhotoID: photoID, Index: last})
	}
}

func (c *wsClient) ackRung(photoID string, err error) {
	c.mu.Lock()
	scheduler := c.ladders[photoID]
	c.mu.Unlock()
	if scheduler == nil {
		return
	}
	scheduler.Ack(err)
}

func (c *wsClient) write(payload WebSocketPayload) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(payload); err != nil {
		log.Printf("websocket write failed: %v", err)
	}
}
