package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	http2 "github.com/primeedge/transfer-service/internal/infrastructure/api/http"
	"github.com/primeedge/transfer-service/internal/notifier"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

const heartbeatInterval = 25 * time.Second

// EventsHandler streams transfer lifecycle events to the user over
// Server-Sent Events. Delivery is best-effort; clients that miss events
// recover through the updates poll endpoint.
type EventsHandler struct {
	hub    *notifier.Hub
	logger *zerolog.Logger
}

func NewEventsHandler(hub *notifier.Hub) *EventsHandler {
	logger := log.GetLogger()
	return &EventsHandler{hub: hub, logger: &logger}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	userID := chi.URLParam(r, http2.UserIDParam)

	events, cancel := h.hub.Subscribe(userID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			// comment line keeps idle connections open through proxies
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event := <-events:
			data, err := json.Marshal(event.Data)
			if err != nil {
				h.logger.Error().Err(err).Str("event", event.Type).Msg("failed to marshal push event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
