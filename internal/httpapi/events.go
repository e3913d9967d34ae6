package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleEvents streams state snapshots as server-sent events. Two event
// names are used: "states" for the full download-state map and "load" for
// slot transitions. An initial snapshot of both is sent on connect.
func handleEvents(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		stateID, stateCh := svc.SubscribeStates()
		defer svc.UnsubscribeStates(stateID)
		loadID, loadCh := svc.SubscribeLoad()
		defer svc.UnsubscribeLoad(loadID)

		sseClientsGauge.Inc()
		defer sseClientsGauge.Dec()

		writeSSE(w, "states", svc.ModelStates())
		writeSSE(w, "load", svc.LoadSnapshot())
		flusher.Flush()

		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case snap, open := <-stateCh:
				if !open {
					return
				}
				writeSSE(w, "states", snap)
				flusher.Flush()
			case snap, open := <-loadCh:
				if !open {
					return
				}
				writeSSE(w, "load", snap)
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
