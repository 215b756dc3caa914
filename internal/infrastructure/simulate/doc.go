/*
Package simulate provides time abstraction and synthetic latency for the
in-process messaging fabric.

# Overview

The broker, pub/sub client, and gateway all delay work to mimic network
hops and asynchronous processing. This package centralizes two concerns:

  - Clock: an injectable Now/AfterFunc pair. Production code uses
    System(); tests use FakeClock and drive schedules with Advance,
    so no test ever sleeps on the wall clock.
  - Profile: bounded random delay distributions (Fixed, Uniform,
    LogNormal) used wherever a component needs a simulated delay.

# Usage

	clock := simulate.System()
	delay := simulate.NewUniform(10*time.Millisecond, 150*time.Millisecond)

	clock.AfterFunc(delay.Sample(), func() {
		// deferred work
	})

	// In tests
	fake := simulate.NewFakeClock(time.Unix(0, 0))
	fake.AfterFunc(time.Second, fired)
	fake.Advance(time.Second) // fired runs synchronously here

# Determinism

FakeClock fires timers in due-time order (scheduling order on ties) and
runs callbacks synchronously inside Advance, including callbacks that
schedule further timers within the advanced window. Combined with the
Fixed profile this makes every delayed code path single-step debuggable.
*/
package simulate
