package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"

	"github.com/presensia/presensi-services/internal/attendancesvc/service"
	log "github.com/sirupsen/logrus"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	tokenAuth  *jwtauth.JWTAuth
	attendance *service.AttendanceService
	employees  *service.EmployeeService
	broker     TapSource
}

// TapSource is the slice of the NATS broker the handlers need.
type TapSource interface {
	TakeLatest() (string, bool)
}

func NewHandler(attendance *service.AttendanceService, employees *service.EmployeeService, broker TapSource) *Handler {
	return &Handler{
		attendance: attendance,
		employees:  employees,
		broker:     broker,
	}
}

// VerifyAndRecord handles a tap end to end: resolve the tag, verify the
// live photo when one is supplied and write the attendance record.
func (h *Handler) VerifyAndRecord(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Form tidak valid"})
		return
	}

	rfid := r.FormValue("rfid")
	if rfid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "rfid wajib diisi"})
		return
	}

	var liveImage []byte
	var contentType string
	if file, header, err := r.FormFile("live_image"); err == nil {
		defer file.Close()
		liveImage, err = io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Gagal membaca foto"})
			return
		}
		contentType = header.Header.Get("Content-Type")
	}

	// the face gate must not be bypassable by omitting the photo
	if h.attendance.VerificationEnabled() && len(liveImage) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Foto verifikasi wajib diunggah"})
		return
	}

	outcome, err := h.attendance.RecordAttendance(r.Context(), rfid, liveImage, contentType)
	if err != nil {
		h.writeAttendanceError(w, rfid, err)
		return
	}

	payload := map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Absensi '%s' untuk %s berhasil dicatat.", outcome.Kind, outcome.Name),
	}
	if outcome.Score != nil {
		payload["score"] = *outcome.Score
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) writeAttendanceError(w http.ResponseWriter, rfid string, err error) {
	var verr *service.VerificationError
	var uerr *service.UpstreamError

	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Karyawan tidak ditemukan"})
	case errors.As(err, &verr):
		log.Infof("verification failed for %s with score %.4f", rfid, verr.Score)
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error": "Verifikasi wajah gagal",
			"score": verr.Score,
		})
	case errors.As(err, &uerr):
		log.Errorf("upstream failure for %s: %v", rfid, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Layanan verifikasi tidak tersedia"})
	default:
		log.Errorf("attendance failure for %s: %v", rfid, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Terjadi kesalahan pada server"})
	}
}

// GetEmployeeData gives the browser what it needs to show the
// verification screen.
func (h *Handler) GetEmployeeData(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Rfid string `json:"rfid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Rfid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "rfid wajib diisi"})
		return
	}

	employee, err := h.employees.Get(r.Context(), payload.Rfid)
	if err != nil {
		if errors.Is(err, service.ErrEmployeeNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Karyawan tidak ditemukan"})
			return
		}
		log.Errorf("employee lookup failed for %s: %v", payload.Rfid, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Terjadi kesalahan pada server"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      employee.Name,
		"status":    employee.Status,
		"image_url": employee.ImageURL,
		"rfid_uid":  employee.RfidUID,
	})
}

// RegisterEmployee stores the reference photo and the identity record.
func (h *Handler) RegisterEmployee(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Form tidak valid"})
		return
	}

	name := r.FormValue("name")
	status := r.FormValue("status")
	rfidUID := r.FormValue("rfid_uid")
	if name == "" || rfidUID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Nama dan rfid_uid wajib diisi"})
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Foto wajib diunggah"})
		return
	}
	defer file.Close()

	photo, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Gagal membaca foto"})
		return
	}

	employee, err := h.employees.Register(r.Context(), name, status, rfidUID, photo)
	if err != nil {
		log.Errorf("registration failed for %s: %v", rfidUID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Terjadi kesalahan saat pendaftaran"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("%s berhasil didaftarkan!", employee.Name),
	})
}

// Photo serves the stored reference photo.
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	rfid := chi.URLParam(r, "rfid")

	photo, err := h.employees.Photo(r.Context(), rfid)
	if err != nil {
		if errors.Is(err, service.ErrEmployeeNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Foto tidak ditemukan"})
			return
		}
		log.Errorf("photo fetch failed for %s: %v", rfid, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Terjadi kesalahan pada server"})
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(photo))
	w.Write(photo)
}

// Report returns every attendance record joined with its employee.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.attendance.Report(r.Context())
	if err != nil {
		log.Errorf("report query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Gagal memuat data laporan"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"records": report})
}

// LatestTap reports the most recent tag seen on the relay, once.
func (h *Handler) LatestTap(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{"uid": nil}
	if h.broker != nil {
		if uid, ok := h.broker.TakeLatest(); ok {
			payload["uid"] = uid
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "attendance service is running at port " + os.Getenv("ATTENDANCE_SERVICE_PORT"),
		"code":    200,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}
