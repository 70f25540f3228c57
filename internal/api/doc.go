// Package api provides the HTTP REST API and WebSocket server for the
// home-control gateway.
//
// It exposes the aggregate status view, hardware channel control, light
// control and a push websocket to the touchscreen UI, and serves the UI
// bundle itself on all unmodeled paths (or relays them to a configured
// reverse proxy during UI development).
//
// The server follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// The server binds to loopback by default and carries no authentication:
// the only client is the local touchscreen, and the upstream bearer token
// never crosses this surface.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
