// Package audit publishes ledger events for downstream consumers. Publishing
// is best-effort: a failed publish never undoes a committed rental.
package audit

import (
	"context"
	"time"
)

type EventType string

const (
	EventCheckedOut   EventType = "rental.checked_out"
	EventReturned     EventType = "rental.returned"
	EventItemReturned EventType = "rental.item_returned"
	EventReconciled   EventType = "rental.reconciled"
)

type Event struct {
	Type          EventType `json:"type"`
	TransactionID int64     `json:"transactionId"`
	ItemID        int64     `json:"itemId,omitempty"`
	StudentID     string    `json:"studentId,omitempty"`
	OrgID         int32     `json:"orgId,omitempty"`
	RentalKind    string    `json:"rentalType,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. It is used when auditing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
