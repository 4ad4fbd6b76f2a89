package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/presensia/presensi-services/internal/attendancesvc/models"
)

type fakeEmployees struct {
	byRFID map[string]*models.Employee
}

func (f *fakeEmployees) GetByRFID(ctx context.Context, rfidUID string) (*models.Employee, error) {
	return f.byRFID[rfidUID], nil
}

func (f *fakeEmployees) Create(ctx context.Context, employee models.Employee) (int64, error) {
	id := int64(len(f.byRFID) + 1)
	employee.ID = id
	f.byRFID[employee.RfidUID] = &employee
	return id, nil
}

type insertedRecord struct {
	employeeID int64
	kind       string
	at         time.Time
}

type fakeRecords struct {
	rows      []insertedRecord
	insertErr error
}

func (f *fakeRecords) HasRecordSince(ctx context.Context, employeeID int64, since time.Time) (bool, error) {
	for _, row := range f.rows {
		if row.employeeID == employeeID && !row.at.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRecords) Insert(ctx context.Context, employeeID int64, kind string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, insertedRecord{employeeID: employeeID, kind: kind, at: time.Now()})
	return nil
}

func (f *fakeRecords) Report(ctx context.Context) ([]models.ReportRow, error) {
	return nil, nil
}

type fakePhotos struct {
	byRFID map[string][]byte
	err    error
}

func (f *fakePhotos) Get(ctx context.Context, rfidUID string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byRFID[rfidUID], nil
}

func (f *fakePhotos) Put(ctx context.Context, rfidUID string, data []byte) error {
	f.byRFID[rfidUID] = data
	return nil
}

// fakeEmbedder maps image bytes to a canned vector.
type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, image []byte, contentType string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[string(image)], nil
}

func registeredEmployee() *fakeEmployees {
	return &fakeEmployees{byRFID: map[string]*models.Employee{
		"04A1B2C3": {ID: 7, RfidUID: "04A1B2C3", Name: "Budi", Status: "Karyawan Tetap"},
	}}
}

func TestFirstTapChecksInSecondChecksOut(t *testing.T) {
	records := &fakeRecords{}
	svc := NewAttendanceService(registeredEmployee(), records, &fakePhotos{}, &fakeEmbedder{}, 0.90, false)

	first, err := svc.RecordAttendance(context.Background(), "04A1B2C3", nil, "")
	if err != nil {
		t.Fatalf("first tap: %v", err)
	}
	if first.Kind != models.KindCheckIn {
		t.Errorf("first tap kind = %s, want check_in", first.Kind)
	}
	if first.Name != "Budi" {
		t.Errorf("first tap name = %s, want Budi", first.Name)
	}
	if first.Score != nil {
		t.Errorf("score = %v with verification disabled, want nil", *first.Score)
	}

	second, err := svc.RecordAttendance(context.Background(), "04A1B2C3", nil, "")
	if err != nil {
		t.Fatalf("second tap: %v", err)
	}
	if second.Kind != models.KindCheckOut {
		t.Errorf("second tap kind = %s, want check_out", second.Kind)
	}

	if len(records.rows) != 2 {
		t.Errorf("stored %d records, want 2", len(records.rows))
	}
}

func TestUnknownTagWritesNothing(t *testing.T) {
	records := &fakeRecords{}
	svc := NewAttendanceService(registeredEmployee(), records, &fakePhotos{}, &fakeEmbedder{}, 0.90, false)

	_, err := svc.RecordAttendance(context.Background(), "DEADBEEF", nil, "")
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("err = %v, want ErrEmployeeNotFound", err)
	}
	if len(records.rows) != 0 {
		t.Errorf("stored %d records for unknown tag, want 0", len(records.rows))
	}
}

func TestVerificationPassRecordsWithScore(t *testing.T) {
	records := &fakeRecords{}
	photos := &fakePhotos{byRFID: map[string][]byte{"04A1B2C3": []byte("ref-photo")}}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"ref-photo":  {0.3, 0.4},
		"live-photo": {0.3, 0.4},
	}}
	svc := NewAttendanceService(registeredEmployee(), records, photos, embedder, 0.90, true)

	outcome, err := svc.RecordAttendance(context.Background(), "04A1B2C3", []byte("live-photo"), "image/jpeg")
	if err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	if outcome.Score == nil {
		t.Fatal("outcome carries no score after verification")
	}
	if *outcome.Score < 0.99 {
		t.Errorf("score = %v for identical embeddings, want ~1.0", *outcome.Score)
	}
	if len(records.rows) != 1 {
		t.Errorf("stored %d records, want 1", len(records.rows))
	}
}

func TestVerificationBelowThresholdWritesNothing(t *testing.T) {
	records := &fakeRecords{}
	photos := &fakePhotos{byRFID: map[string][]byte{"04A1B2C3": []byte("ref-photo")}}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"ref-photo":  {1, 0},
		"live-photo": {0, 1},
	}}
	svc := NewAttendanceService(registeredEmployee(), records, photos, embedder, 0.90, true)

	_, err := svc.RecordAttendance(context.Background(), "04A1B2C3", []byte("live-photo"), "image/jpeg")

	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *VerificationError", err)
	}
	if verr.Score != 0 {
		t.Errorf("carried score = %v for orthogonal embeddings, want 0", verr.Score)
	}
	if len(records.rows) != 0 {
		t.Errorf("stored %d records on failed verification, want 0", len(records.rows))
	}
}

func TestEmbedderFailureWritesNothing(t *testing.T) {
	records := &fakeRecords{}
	photos := &fakePhotos{byRFID: map[string][]byte{"04A1B2C3": []byte("ref-photo")}}
	embedder := &fakeEmbedder{err: errors.New("inference service down")}
	svc := NewAttendanceService(registeredEmployee(), records, photos, embedder, 0.90, true)

	_, err := svc.RecordAttendance(context.Background(), "04A1B2C3", []byte("live-photo"), "image/jpeg")

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if len(records.rows) != 0 {
		t.Errorf("stored %d records despite embedding failure, want 0", len(records.rows))
	}
}

func TestReferencePhotoFetchFailureWritesNothing(t *testing.T) {
	records := &fakeRecords{}
	photos := &fakePhotos{err: errors.New("bucket unreachable")}
	svc := NewAttendanceService(registeredEmployee(), records, photos, &fakeEmbedder{}, 0.90, true)

	_, err := svc.RecordAttendance(context.Background(), "04A1B2C3", []byte("live-photo"), "image/jpeg")

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if len(records.rows) != 0 {
		t.Errorf("stored %d records despite photo fetch failure, want 0", len(records.rows))
	}
}

func TestVerificationSkippedWithoutLiveImage(t *testing.T) {
	records := &fakeRecords{}
	photos := &fakePhotos{byRFID: map[string][]byte{"04A1B2C3": []byte("ref-photo")}}
	svc := NewAttendanceService(registeredEmployee(), records, photos, &fakeEmbedder{}, 0.90, true)

	outcome, err := svc.RecordAttendance(context.Background(), "04A1B2C3", nil, "")
	if err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	if outcome.Score != nil {
		t.Error("verification ran without a live image")
	}
	if outcome.Kind != models.KindCheckIn {
		t.Errorf("kind = %s, want check_in", outcome.Kind)
	}
}

func TestInsertFailureSurfacesPersistenceError(t *testing.T) {
	records := &fakeRecords{insertErr: errors.New("connection reset")}
	svc := NewAttendanceService(registeredEmployee(), records, &fakePhotos{}, &fakeEmbedder{}, 0.90, false)

	_, err := svc.RecordAttendance(context.Background(), "04A1B2C3", nil, "")

	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *PersistenceError", err)
	}
}

func TestOldRecordsDoNotAffectToday(t *testing.T) {
	records := &fakeRecords{rows: []insertedRecord{
		{employeeID: 7, kind: models.KindCheckOut, at: time.Now().AddDate(0, 0, -1)},
	}}
	svc := NewAttendanceService(registeredEmployee(), records, &fakePhotos{}, &fakeEmbedder{}, 0.90, false)

	outcome, err := svc.RecordAttendance(context.Background(), "04A1B2C3", nil, "")
	if err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	if outcome.Kind != models.KindCheckIn {
		t.Errorf("kind = %s with only prior-day records, want check_in", outcome.Kind)
	}
}
