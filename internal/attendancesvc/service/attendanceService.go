package service

import (
	"context"
	"net/http"
	"time"

	"github.com/presensia/presensi-services/internal/attendancesvc/embedding"
	"github.com/presensia/presensi-services/internal/attendancesvc/models"
)

// EmployeeGateway is the store contract for employee identity records.
// GetByRFID returns nil, nil when the tag is unknown.
type EmployeeGateway interface {
	GetByRFID(ctx context.Context, rfidUID string) (*models.Employee, error)
	Create(ctx context.Context, employee models.Employee) (int64, error)
}

// AttendanceGateway is the store contract for the append-only records.
type AttendanceGateway interface {
	HasRecordSince(ctx context.Context, employeeID int64, since time.Time) (bool, error)
	Insert(ctx context.Context, employeeID int64, kind string) error
	Report(ctx context.Context) ([]models.ReportRow, error)
}

// PhotoGateway is the object-store contract for reference photos.
type PhotoGateway interface {
	Get(ctx context.Context, rfidUID string) ([]byte, error)
	Put(ctx context.Context, rfidUID string, data []byte) error
}

// Embedder produces a feature vector for an image.
type Embedder interface {
	Embed(ctx context.Context, image []byte, contentType string) ([]float64, error)
}

// AttendanceService decides and persists one check-in/check-out event
// per accepted tap.
type AttendanceService struct {
	employees  EmployeeGateway
	records    AttendanceGateway
	photos     PhotoGateway
	embedder   Embedder
	threshold  float64
	verifyFace bool
}

func NewAttendanceService(employees EmployeeGateway, records AttendanceGateway, photos PhotoGateway, embedder Embedder, threshold float64, verifyFace bool) *AttendanceService {
	return &AttendanceService{
		employees:  employees,
		records:    records,
		photos:     photos,
		embedder:   embedder,
		threshold:  threshold,
		verifyFace: verifyFace,
	}
}

// VerificationEnabled reports whether taps must carry a live photo.
func (s *AttendanceService) VerificationEnabled() bool {
	return s.verifyFace
}

// Outcome is what the caller shows the person at the reader.
type Outcome struct {
	Name  string   `json:"name"`
	Kind  string   `json:"type"`
	Score *float64 `json:"score,omitempty"`
}

// RecordAttendance resolves the tag, optionally verifies the live photo
// against the stored reference, derives check-in vs check-out from
// today's records and appends exactly one record. Every failure before
// the insert leaves the store untouched.
func (s *AttendanceService) RecordAttendance(ctx context.Context, rfidUID string, liveImage []byte, contentType string) (*Outcome, error) {
	employee, err := s.employees.GetByRFID(ctx, rfidUID)
	if err != nil {
		return nil, &PersistenceError{Op: "employee lookup", Err: err}
	}
	if employee == nil {
		return nil, ErrEmployeeNotFound
	}

	var score *float64
	if s.verifyFace && len(liveImage) > 0 {
		sim, err := s.verify(ctx, employee, liveImage, contentType)
		if err != nil {
			return nil, err
		}
		score = &sim
		if !embedding.IsMatch(sim, s.threshold) {
			return nil, &VerificationError{Score: sim}
		}
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// The exists read and the insert below are deliberately not tied
	// together: two simultaneous taps for one employee can both observe
	// an empty day and both record check_in. Matches the original
	// behavior, see DESIGN.md.
	exists, err := s.records.HasRecordSince(ctx, employee.ID, midnight)
	if err != nil {
		return nil, &PersistenceError{Op: "attendance lookup", Err: err}
	}

	kind := models.KindCheckIn
	if exists {
		kind = models.KindCheckOut
	}

	if err := s.records.Insert(ctx, employee.ID, kind); err != nil {
		return nil, &PersistenceError{Op: "attendance insert", Err: err}
	}

	return &Outcome{Name: employee.Name, Kind: kind, Score: score}, nil
}

func (s *AttendanceService) verify(ctx context.Context, employee *models.Employee, liveImage []byte, contentType string) (float64, error) {
	reference, err := s.photos.Get(ctx, employee.RfidUID)
	if err != nil {
		return 0, &UpstreamError{Op: "reference photo fetch", Err: err}
	}

	referenceVec, err := s.embedder.Embed(ctx, reference, http.DetectContentType(reference))
	if err != nil {
		return 0, &UpstreamError{Op: "reference embedding", Err: err}
	}

	liveVec, err := s.embedder.Embed(ctx, liveImage, contentType)
	if err != nil {
		return 0, &UpstreamError{Op: "live embedding", Err: err}
	}

	sim, err := embedding.Cosine(referenceVec, liveVec)
	if err != nil {
		// malformed vectors are an upstream defect, not a mismatch
		return 0, &UpstreamError{Op: "similarity scoring", Err: err}
	}

	return sim, nil
}

// Report returns the full attendance report for the admin page.
func (s *AttendanceService) Report(ctx context.Context) ([]models.ReportRow, error) {
	report, err := s.records.Report(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "report query", Err: err}
	}
	return report, nil
}
