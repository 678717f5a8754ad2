// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/flashcard-frenzy/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts the WebSocket gateway, the results API (bare and under /api) and /ping.
func NewRouter(logger *logrus.Logger, gw *Gateway, results ResultReader) http.Handler {
	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("/ws", logged(GameWSHandler(logger, gw)))

	list := logged(ListResultsHandler(logger, results))
	get := logged(GetResultHandler(logger, results))
	for _, prefix := range []string{"", "/api"} {
		mux.Handle("GET "+prefix+"/results", list)
		mux.Handle("GET "+prefix+"/results/{roomId}", get)
	}

	mux.HandleFunc("GET /ping", PingHandler)
	return mux
}
