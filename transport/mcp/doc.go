// Package mcp exposes the snakeboard REST API as Model Context Protocol tools.
//
// The client is thin: every tool is an HTTP call against a running
// "snakeboard serve", so an agent and a browser can share the same board.
//
// MCP Tools:
//   - board_state: ASCII grid with score, heading and distance to target
//   - start_game: Start the board, headless if no browser has mounted it
//   - restart_game: Start over
//   - press_key: Steer by direction or raw key
//   - stop_game: Release the board
//   - list_profiles, get_profile: Tuning profiles
//   - game_instructions: Rules and coordinates
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
