package http

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/pkg/metrics"
)

// wsCommand is sent from client to control route playback.
type wsCommand struct {
	Action     string     `json:"action"` // "play" | "stop"
	Route      RouteInput `json:"route"`
	Speed      float64    `json:"speed"`       // playback multiplier (default 1, max 1000)
	IntervalMs int        `json:"interval_ms"` // frame interval (default 1000, min 100)
}

// wsFrame is one playback frame pushed to the client.
type wsFrame struct {
	RouteID  string                    `json:"route_id"`
	Position *domain.SimulatedPosition `json:"position"`
	Done     bool                      `json:"done"`
}

// PlaybackHandler returns a handler that upgrades to WebSocket and
// replays a client-supplied route as a stream of simulated positions.
// Clients send JSON: {"action":"play","route":{...},"speed":10}
// Route time advances at wall-clock rate times the speed multiplier;
// the stream ends with a done frame once playback passes the last
// waypoint.
func PlaybackHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		log.Printf("ws playback client connected: %s", remoteAddr)

		var mu sync.Mutex

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		var stopPlayback chan struct{}

		// Read client commands
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var cmd wsCommand
			if err := json.Unmarshal(msg, &cmd); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch cmd.Action {
			case "play":
				route, err := cmd.Route.ToDomain()
				if err != nil {
					_ = writeJSON(map[string]string{"error": err.Error()})
					continue
				}

				speed := cmd.Speed
				if speed <= 0 {
					speed = 1
				}
				if speed > 1000 {
					speed = 1000
				}
				interval := time.Duration(cmd.IntervalMs) * time.Millisecond
				if interval < 100*time.Millisecond {
					interval = time.Second
				}

				// One playback at a time per connection
				if stopPlayback != nil {
					close(stopPlayback)
				}
				stopPlayback = make(chan struct{})

				go runPlayback(deps, route, speed, interval, stopPlayback, writeJSON)
				_ = writeJSON(map[string]string{"status": "playing", "route_id": route.ID})

			case "stop":
				if stopPlayback != nil {
					close(stopPlayback)
					stopPlayback = nil
					_ = writeJSON(map[string]string{"status": "stopped"})
				} else {
					_ = writeJSON(map[string]string{"error": "nothing playing"})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + cmd.Action})
			}
		}

		// Cleanup
		close(done)
		if stopPlayback != nil {
			close(stopPlayback)
		}
		log.Printf("ws playback client disconnected: %s", remoteAddr)
	}
}

// runPlayback advances route time at wall-clock rate times speed and
// pushes one frame per tick until the route completes or stop closes.
func runPlayback(deps *Dependencies, route *domain.Route, speed float64, interval time.Duration, stop chan struct{}, writeJSON func(interface{}) error) {
	start := time.Now()
	routeStart := route.Start()
	routeEnd := route.End()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			elapsed := time.Duration(float64(time.Since(start)) * speed)
			simTime := routeStart.Add(elapsed)

			pos, err := deps.Simulator.SimulateAt(route, simTime)
			if err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				return
			}
			metrics.PositionsSimulated.WithLabelValues(string(pos.Source)).Inc()

			frame := wsFrame{RouteID: route.ID, Position: pos, Done: !simTime.Before(routeEnd)}
			if err := writeJSON(frame); err != nil {
				return
			}
			if frame.Done {
				return
			}
		}
	}
}
