package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"github.com/amankwa/attendance-services/internal/storesvc/service"
)

// Handler exposes the record store surface consumed by the base station
// and the capture device. Bodies are bare JSON objects and arrays; every
// error is a JSON object whose body the caller keeps as the message.
type Handler struct {
	sessions   *service.SessionService
	attendance *service.AttendanceService
	students   *service.StudentService
	cards      *service.CardService
	capture    *service.CaptureService
}

func NewHandler(sessions *service.SessionService, attendance *service.AttendanceService,
	students *service.StudentService, cards *service.CardService, capture *service.CaptureService) *Handler {
	return &Handler{
		sessions:   sessions,
		attendance: attendance,
		students:   students,
		cards:      cards,
		capture:    capture,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrCourseCodeRequired),
		errors.Is(err, service.ErrStudentFieldsRequired),
		errors.Is(err, service.ErrUIDRequired),
		errors.Is(err, service.ErrNoActiveSession):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrSessionActive),
		errors.Is(err, service.ErrUIDLinked):
		code = http.StatusConflict
	case errors.Is(err, service.ErrNoMatchingSession),
		errors.Is(err, service.ErrCardNotLinked),
		errors.Is(err, service.ErrNoScanPending):
		code = http.StatusNotFound
	}

	h.writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (h *Handler) ActiveSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Active(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	// null body when nothing is active
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CourseCode string `json:"course_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	s, err := h.sessions.Start(r.Context(), payload.CourseCode)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.End(r.Context(), chi.URLParam(r, "course_code"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "session_id": id})
}

func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("session_id")
	sessionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing or invalid session_id"})
		return
	}

	logs, err := h.attendance.List(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, logs)
}

// MarkAttendance records a device-side capture result.
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UIDHex string `json:"uid_hex"`
		FaceOk bool   `json:"face_ok"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	row, err := h.attendance.Mark(r.Context(), payload.UIDHex, payload.FaceOk)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, row)
}

// BeginAttendance consumes the pending card scan and appends a row for
// the active session.
func (h *Handler) BeginAttendance(w http.ResponseWriter, r *http.Request) {
	result, err := h.capture.Begin(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, students)
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IndexNo  string `json:"index_no"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	s, err := h.students.Create(r.Context(), payload.IndexNo, payload.FullName)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) LinkCard(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UIDHex    string `json:"uid_hex"`
		StudentID int64  `json:"student_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	card, err := h.cards.Link(r.Context(), payload.StudentID, payload.UIDHex)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, card)
}

func (h *Handler) ReportScan(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UIDHex string `json:"uid_hex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	scan, err := h.cards.ReportScan(r.Context(), payload.UIDHex)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, scan)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "store service is running at port " + os.Getenv("STORE_SERVICE_PORT"),
	})
}
