package batches

import "time"

// Batch groups students for a run of the finishing school program.
type Batch struct {
	ID           int64
	Name         string
	Topic        string
	StartDate    time.Time
	EndDate      time.Time
	StudentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Member is a student assigned to a batch.
type Member struct {
	AccountID string
	StudentID string
	Name      string
	BatchID   int64
	BatchName string
}
