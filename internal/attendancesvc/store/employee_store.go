package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/presensia/presensi-services/internal/attendancesvc/models"
)

type EmployeeStore struct {
	db *pgxpool.Pool
}

func NewEmployeeStore(db *pgxpool.Pool) *EmployeeStore {
	return &EmployeeStore{db: db}
}

// GetByRFID returns nil, nil when no employee carries the tag.
func (s *EmployeeStore) GetByRFID(ctx context.Context, rfidUID string) (*models.Employee, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, rfid_uid, name, status, image_url, created_at
        FROM employees
        WHERE rfid_uid = $1
    `, rfidUID)

	e := &models.Employee{}
	err := row.Scan(
		&e.ID,
		&e.RfidUID,
		&e.Name,
		&e.Status,
		&e.ImageURL,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee by rfid: %w", err)
	}

	return e, nil
}

func (s *EmployeeStore) Create(ctx context.Context, employee models.Employee) (int64, error) {
	var employeeId int64

	query := `
        INSERT INTO employees (rfid_uid, name, status, image_url)
        VALUES ($1, $2, $3, $4)
        RETURNING id;
    `

	err := s.db.QueryRow(ctx, query, employee.RfidUID, employee.Name, employee.Status, employee.ImageURL).Scan(&employeeId)
	if err != nil {
		return 0, fmt.Errorf("could not create employee: %w", err)
	}

	return employeeId, nil
}
