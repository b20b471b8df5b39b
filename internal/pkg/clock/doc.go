// Package clock provides a tiny time abstraction.
//
// Production code depends on Clocker (and Ticker where periodic callbacks are
// needed) instead of calling time.Now or time.NewTicker directly, so tests can
// drive time deterministically.
package clock
