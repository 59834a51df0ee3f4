package main

import (
	"net/http"

	"drp/internal/websocket"
)

// Global hub instance.
var wsHub = websocket.NewHub()

// handleWebSocket upgrades the HTTP connection to a WebSocket.
func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handle(wsHub, w, r)
}

// broadcast is a convenience helper used by handlers.
func broadcast(module, action string, id any) {
	wsHub.BroadcastChange(module, action, id)
}
