package batch

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of a production batch
type Status string

const (
	StatusPreparing Status = "preparing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ChecklistItem is one named pre-cast gate. It lives inside its batch.
type ChecklistItem struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Checked   bool       `json:"checked"`
	CheckedBy *uuid.UUID `json:"checked_by,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

// DefaultChecklist returns a fresh copy of the gates every batch starts with.
func DefaultChecklist() []ChecklistItem {
	return []ChecklistItem{
		{Key: "rebar_inspected", Label: "Rebar inspected"},
		{Key: "formwork_checked", Label: "Formwork checked"},
		{Key: "embeds_placed", Label: "Embedded items placed"},
	}
}

// ConcreteInfo is optional pour metadata.
type ConcreteInfo struct {
	Supplier       *string
	Grade          *string
	AirTemperature *float64
}

// Batch is a cast lot: elements poured together
type Batch struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	BatchNumber string
	BatchDate   time.Time
	Concrete    ConcreteInfo
	Checklist   []ChecklistItem
	Status      Status
	Notes       *string

	CreatedBy   uuid.UUID
	CompletedBy *uuid.UUID
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChecklistComplete reports whether every gate is checked.
func (b *Batch) ChecklistComplete() bool {
	for _, item := range b.Checklist {
		if !item.Checked {
			return false
		}
	}
	return true
}

// UncheckedKeys lists the gates still open, in checklist order.
func (b *Batch) UncheckedKeys() []string {
	var keys []string
	for _, item := range b.Checklist {
		if !item.Checked {
			keys = append(keys, item.Key)
		}
	}
	return keys
}

// Item returns the index of the checklist item with key, or -1.
func (b *Batch) Item(key string) int {
	for i, item := range b.Checklist {
		if item.Key == key {
			return i
		}
	}
	return -1
}
