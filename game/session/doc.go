// Package session owns the board handle for snakeboard.
//
// The session package implements:
//   - A Holder that keeps at most one engine.Board alive
//   - Construct-on-first-use and reconfigure-on-reuse acquisition
//   - Owner-checked release, so only the client that mounted a surface unmounts it
//   - A process-wide default holder behind GetInstance and DeleteInstance
//
// Usage:
//
//	board, err := session.GetInstance(engine.Config{
//		Surface:  surface,
//		Size:     400,
//		Controls: engine.DefaultControls,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	board.Start()
//
//	// On unmount
//	session.DeleteInstance()
//
// Concurrency:
//
// Holder methods are safe for concurrent use. A second Acquire while a board
// is live returns the same board rebound to the new configuration, so two
// hosts can never run two loops.
package session
