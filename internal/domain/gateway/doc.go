/*
Package gateway implements the edge routing layer: a registry of
services, routes, and plugins, plus the proxy that forwards matched
requests upstream.

# Registry

Store holds services, routes, and plugins in insertion order. Routes
bind URL path patterns (doublestar globs) and optional method lists to
a service; Match walks routes in declaration order and returns the
first hit, so more specific routes should be declared first.

Plugins attach behavior to the edge. Global plugins (no route scope)
apply to every request; route-scoped plugins apply to their route only.
Only known plugin names are accepted:

	cors        cross-origin headers
	rate-limit  per-client request caps
	tracing     trace context propagation

# Declarative config

Loader reads a gateway config file and populates the store. YAML, TOML,
and JSON are dispatched by file extension. Records that fail validation
are skipped and counted rather than aborting the load, and the result
carries a checksum of the raw file for change detection.

# Forwarding

Proxy relays matched requests to the route's service. Forwarding never
retries: payment traffic is not safely replayable, so transport
failures surface as 502 immediately. A circuit breaker guards the
upstream pool and upstream 5xx responses are relayed to the client
while still counting as breaker failures. Routes with strip_path drop
the static prefix of the matched pattern before forwarding.
*/
package gateway
