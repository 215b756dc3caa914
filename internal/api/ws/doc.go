// Package ws streams queue activity to monitoring clients.
//
// The Stream hub implements the broker's Notifier hook: every publish,
// route and delivery event is encoded once and fanned out to all
// connected clients. A slow client drops events instead of stalling
// the broker.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established
//   - pong: Keep-alive reply
//   - published/delivered/routed/failed: Queue activity
//   - error: Malformed or unknown request
//
// Example Usage:
//
//	stream := ws.NewStream(logger)
//	router.WithNotifier(stream)
//	engine.GET("/monitor/stream", stream.HandleConnection)
package ws
