// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Use-case code depends on Publisher and Consumer only. NATS is the
// production backend; the in-memory backend delivers within the process
// and is used when no broker is configured.
package messaging
