// Package http exposes the gateway's REST surface: the payment
// submission endpoint, the admin operations over services, routes, and
// plugins, and the monitor endpoints for queue, pub/sub, and audit
// state.
package http
