// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Business code depends on the interfaces here; the backing broker is picked
// at startup (NATS, Kafka, or the in-process memory broker for single
// instance deployments and tests).
package messaging
