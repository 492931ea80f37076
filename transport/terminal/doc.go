// Package terminal plays snakeboard in a terminal through tcell.
//
// Surface maps the engine's pixel draw calls onto character cells, one board
// cell per two columns, and Player turns terminal key events into the same
// key identifiers a browser sends ("ArrowUp", "KeyW"), so profiles with
// custom controls work unchanged.
package terminal
