package attendance

import "time"

// Record is one student's presence on one session day.
type Record struct {
	ID        int64
	BatchID   int64
	AccountID string
	Date      time.Time
	Present   bool
	MarkedBy  string
	CreatedAt time.Time
}

// Summary aggregates a student's attendance.
type Summary struct {
	Present int
	Total   int
}

// ReportRow is one student's line in a batch attendance report.
type ReportRow struct {
	AccountID string
	StudentID string
	Name      string
	Present   int
	Total     int
}

// Rate returns the attendance percentage, 0 when nothing is recorded.
func (r ReportRow) Rate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Present) / float64(r.Total) * 100
}
