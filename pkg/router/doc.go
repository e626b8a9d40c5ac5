// Package router provides the HTTP router of the webdesk API: pattern
// matching with named parameters, per-route and global middleware, and
// JSON-aware 404/405 handling.
//
// The router supports the following patterns:
//   - Exact match: /api/v1/fs
//   - Named parameters: /api/v1/fs/nodes/:id
//   - Wildcard tail: /api/v1/fs/raw/*, bound as "wildcard"
//
// Example usage:
//
//	r := router.New()
//	r.GET("/api/v1/fs/nodes/:id", NodeHandler)
//	r.POST("/api/v1/windows/:id/focus", FocusHandler)
//	http.ListenAndServe(":8080", r)
package router
