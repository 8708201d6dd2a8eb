package observability

import (
	"net/http"
	"strings"

	"github.com/drblury/brokercore/internal/runtime/broker"
	loggingpkg "github.com/drblury/brokercore/internal/runtime/logging"
)

// StatusPath is where brokerctl mounts the status handler.
const StatusPath = "/api/broker"

// StatusHandler serves the broker snapshot as JSON. Origins listed in
// allowedOrigins ("*" for any) receive CORS headers.
func StatusHandler(b *broker.MessageBroker, allowedOrigins []string, logger loggingpkg.ServiceLogger) http.Handler {
	if logger == nil {
		logger = loggingpkg.NopLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := allowedCORSOrigin(allowedOrigins, r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodGet:
		default:
			w.Header().Set("Allow", "GET, OPTIONS")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		var body []byte
		err := b.Reconfigure(func(b *broker.MessageBroker) error {
			var err error
			body, err = b.MarshalSnapshot()
			return err
		})
		if err != nil {
			logger.Error("Failed to encode broker snapshot", err, loggingpkg.LogFields{"broker_id": b.ID()})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}

func allowedCORSOrigin(allowed []string, requestOrigin string) string {
	for _, origin := range allowed {
		if origin == "*" {
			return "*"
		}
		if requestOrigin != "" && strings.EqualFold(origin, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
