// Package events publishes game notifications to NATS.
//
// Every state change is published on pairs.<session>.state, every match on
// pairs.<session>.match and the completion of a board on
// pairs.<session>.complete. Payloads are JSON encoded Event values.
//
// Publisher implements service.Notifier and is registered alongside the
// WebSocket hub when the server is started with a NATS URL. Watch is the
// consuming side used by the events command.
package events
