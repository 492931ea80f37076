// Package service provides the board operations layer for snakeboard.
//
// The service package implements:
//   - Surface mounting and owner-checked unmounting
//   - Start, restart and stop of the single board
//   - Key dispatch into the board's input source
//   - Tuning profile discovery and selection
//
// Core Interfaces:
//
// BoardService is the interface every transport (REST, WebSocket, MCP) calls.
// BoardHolder keeps the one board alive; ProfileManager loads tuning profiles;
// KeyDispatcher fans keys out to whatever the board subscribed to.
//
// Architecture:
//
// The service layer sits between the transports and the engine. It never
// touches the simulation directly: it binds surfaces through the holder and
// relies on Board for lifecycle and serialization.
//
// Usage:
//
//	keys := engine.NewKeyBroadcaster()
//	holder := session.NewHolder(engine.Options{Input: keys})
//	profiles, _ := config.NewManager("configs")
//	svc := service.NewBoardService(holder, profiles, keys)
//
//	state, err := svc.Mount(ctx, service.MountRequest{
//		Owner:   clientID,
//		Surface: surface,
//		Size:    400,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc.Press(ctx, "ArrowUp")
package service
