// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the gateway.
const (
	BadSubprotocolError = 3000 // Client offered subprotocols, none of which the gateway speaks.
)
