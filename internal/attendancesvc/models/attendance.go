package models

import (
	"time"
)

const (
	KindCheckIn  = "check_in"
	KindCheckOut = "check_out"
)

// AttendanceRecord is an append-only fact, never updated or deleted.
type AttendanceRecord struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	Kind       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReportRow is one line of the attendance report, record joined with
// its employee.
type ReportRow struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"type"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
}
