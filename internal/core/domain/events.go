package domain

import "time"

// TransactionCommitted is emitted once per committed ledger operation.
type TransactionCommitted struct {
	EventID     string              `json:"eventID"`
	Operation   TransactionKind     `json:"operation"` // Kind of the originating leg (transfer_out for transfers)
	TransferID  string              `json:"transferID,omitempty"`
	Records     []TransactionRecord `json:"records"`
	CommittedAt time.Time           `json:"committedAt"`
}

// Key returns the partitioning key of the event.
func (e TransactionCommitted) Key() string {
	if e.TransferID != "" {
		return e.TransferID
	}
	return e.EventID
}
