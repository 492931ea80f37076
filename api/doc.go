// Package api provides the HTTP surface for snakeboard.
//
// Endpoints:
//
// Board:
//   - GET /api/board - Current binding and snapshot
//   - POST /api/board/start - Start the mounted board, or the headless one
//   - POST /api/board/restart - Discard the session and start anew
//   - POST /api/board/keys - Deliver {"key": "ArrowUp"} to the board
//   - DELETE /api/board - Stop and release the board
//
// Profiles:
//   - GET /api/profiles - List tuning profiles
//   - GET /api/profiles/{name} - Get one profile
//
// Other:
//   - GET /ws?size=N&profile=name - Browser canvas transport
//   - GET /metrics - Prometheus metrics, when enabled
//   - GET / - Static browser client
//
// Error Handling:
//
// Errors are returned as JSON, {"error": "message"}. A missing profile is 404,
// a bad key, profile or board size is 400, and operating on a board nobody
// mounted (or someone else owns) is 409.
//
// Usage:
//
//	server := api.NewServer(boardService, hub, api.WithMetrics(collector.Handler()))
//	http.ListenAndServe(":8080", collector.InstrumentHandler(server))
package api
