// Package server provides HTTP routing, middleware, and the local JSON API over a recommendation session.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with per-method dispatch, so one path
// may serve several methods (GET and DELETE /api/history).
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [HealthHandler] is registered this way.
//
// # API
//
//	GET    /health
//	GET    /api/search?q=&limit=
//	GET    /api/session
//	POST   /api/session/toggle     {"id": 1}
//	POST   /api/session/random
//	POST   /api/session/genres     {"genre": "pop" | "all"}
//	POST   /api/session/num-recs   {"num_recs": 25}
//	POST   /api/recommend
//	GET    /api/history
//	DELETE /api/history
//	POST   /api/history/restore    {"index": 0}
//
// Errors are JSON objects with an "error" field. A failed recommendation answers 502 and leaves
// the session output untouched; the client may simply try again.
package server
