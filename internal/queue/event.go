// Package queue defines message payloads exchanged over the message broker.
package queue

// TokenReusedQueue is the queue carrying refresh-token reuse signals.
const TokenReusedQueue = "auth.token_reused"

// TokenReusedEvent is published when the rotation protocol detects a
// superseded refresh token being replayed. A replay means a token that was
// already rotated away came back, so either a client retried with stale
// state or a stolen token was used. Consumers log it for operators; the
// session itself has already been torn down by the time this is emitted.
type TokenReusedEvent struct {
	UserID     string `json:"user_id"`
	DetectedAt string `json:"detected_at"` // RFC 3339
}
