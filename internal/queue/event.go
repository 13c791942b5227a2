// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// GateMovementEvent is published after a guard successfully marks a
// student OUT or IN.  It carries enough information for downstream
// consumers to log, notify wardens, or feed analytics without querying
// the record store.
type GateMovementEvent struct {
	RequestID  int64  `json:"request_id"`
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Category   string `json:"category"` // "L" or "O"
	Action     string `json:"action"`   // "OUT" or "IN"
	Status     string `json:"status"`   // resulting wire status
	OccurredAt string `json:"occurred_at"`
}
