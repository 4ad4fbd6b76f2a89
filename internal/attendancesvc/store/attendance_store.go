package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/presensia/presensi-services/internal/attendancesvc/models"
)

type AttendanceStore struct {
	db *pgxpool.Pool
}

func NewAttendanceStore(db *pgxpool.Pool) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// HasRecordSince reports whether the employee has any attendance record
// at or after the given instant. The check-in/check-out derivation only
// ever asks about local midnight of the current day.
func (s *AttendanceStore) HasRecordSince(ctx context.Context, employeeID int64, since time.Time) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE employee_id = $1 AND timestamp >= $2
		)`

	err := s.db.QueryRow(ctx, query, employeeID, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query attendance records: %w", err)
	}

	return exists, nil
}

// Insert appends one record, the timestamp is server-assigned.
func (s *AttendanceStore) Insert(ctx context.Context, employeeID int64, kind string) error {
	query := `
		INSERT INTO attendance_records (employee_id, type)
		VALUES ($1, $2)`

	if _, err := s.db.Exec(ctx, query, employeeID, kind); err != nil {
		return fmt.Errorf("could not insert attendance record: %w", err)
	}

	return nil
}

// Report returns every record joined with its employee, newest first.
func (s *AttendanceStore) Report(ctx context.Context) ([]models.ReportRow, error) {
	query := `
		SELECT r.timestamp, r.type, e.name, e.status
		FROM attendance_records r
		JOIN employees e ON e.id = r.employee_id
		ORDER BY r.timestamp DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance report: %w", err)
	}
	defer rows.Close()

	var report []models.ReportRow
	for rows.Next() {
		var row models.ReportRow
		if err := rows.Scan(&row.Timestamp, &row.Kind, &row.Name, &row.Status); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading report rows: %w", err)
	}

	return report, nil
}
