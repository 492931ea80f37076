// Package websocket provides the browser transport for snakeboard.
//
// The websocket package implements:
//   - A hub that fans frames and state out to every connected client
//   - RemoteSurface, an engine.Surface that ships each frame as draw ops
//   - Mount-on-connect: ?size=N binds the board to the remote surface
//   - Key, start and restart messages routed to the board service
//   - A per-client token bucket on key messages
//
// Message Protocol:
//
// Clients send JSON such as {"type":"key","key":"ArrowUp"}, {"type":"start"}
// or {"type":"restart"}. The server sends {"event":"hello","client_id":...}
// once, then "frame" events carrying the draw ops of every presented frame,
// "state" events after lifecycle changes, and "error" events for requests
// that failed.
//
// Usage:
//
//	hub := websocket.NewHub(logger, collector)
//	go hub.Run(ctx)
//
//	surface := websocket.NewRemoteSurface(hub)
//	router.Handle("/ws", websocket.NewHandler(hub, boardService, surface))
//
// Connection Lifecycle:
//
// 1. Client connects, optionally with ?size=N&profile=name
// 2. Connection registered with the hub, hello sent
// 3. With a size, the board is mounted and owned by the client id
// 4. Client sends keys and receives frames
// 5. Disconnection unmounts the board if the client still owns it
//
// A client that falls behind on its send buffer is dropped rather than
// slowing the others down.
package websocket
