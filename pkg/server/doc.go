// Package server exposes a session over HTTP.
//
// The server mounts the JSON API under /api/v1 together with health,
// readiness and Prometheus endpoints, and streams bus events to browsers
// with server-sent events or a WebSocket:
//
//	srv := server.New(server.Config{Addr: ":8080", Session: ctrl})
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
package server
