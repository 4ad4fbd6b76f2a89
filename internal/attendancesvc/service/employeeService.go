package service

import (
	"context"
	"errors"

	"github.com/presensia/presensi-services/internal/attendancesvc/models"
	"github.com/presensia/presensi-services/internal/attendancesvc/store"
)

// EmployeeService covers the registration flow and employee lookups
// for the web client.
type EmployeeService struct {
	employees EmployeeGateway
	photos    PhotoGateway
}

func NewEmployeeService(employees EmployeeGateway, photos PhotoGateway) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		photos:    photos,
	}
}

// Register stores the reference photo and creates the identity record.
// The photo goes in first so a tap can never resolve an employee whose
// reference image is missing.
func (s *EmployeeService) Register(ctx context.Context, name, status, rfidUID string, photo []byte) (*models.Employee, error) {
	if err := s.photos.Put(ctx, rfidUID, photo); err != nil {
		return nil, &PersistenceError{Op: "photo upload", Err: err}
	}

	employee := models.Employee{
		RfidUID:  rfidUID,
		Name:     name,
		Status:   status,
		ImageURL: "/v1/photos/" + rfidUID,
	}

	id, err := s.employees.Create(ctx, employee)
	if err != nil {
		return nil, &PersistenceError{Op: "employee insert", Err: err}
	}

	employee.ID = id
	return &employee, nil
}

// Get resolves a tag UID to its employee.
func (s *EmployeeService) Get(ctx context.Context, rfidUID string) (*models.Employee, error) {
	employee, err := s.employees.GetByRFID(ctx, rfidUID)
	if err != nil {
		return nil, &PersistenceError{Op: "employee lookup", Err: err}
	}
	if employee == nil {
		return nil, ErrEmployeeNotFound
	}
	return employee, nil
}

// Photo returns the stored reference photo bytes for serving.
func (s *EmployeeService) Photo(ctx context.Context, rfidUID string) ([]byte, error) {
	photo, err := s.photos.Get(ctx, rfidUID)
	if err != nil {
		if errors.Is(err, store.ErrPhotoNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, &PersistenceError{Op: "photo fetch", Err: err}
	}
	return photo, nil
}
