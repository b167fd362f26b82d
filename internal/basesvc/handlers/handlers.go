package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"github.com/amankwa/attendance-services/internal/basesvc/device"
	"github.com/amankwa/attendance-services/internal/basesvc/session"
	"github.com/amankwa/attendance-services/internal/basesvc/storeapi"
)

type Handler struct {
	controller *session.Controller
	bridge     *device.Bridge
	store      *storeapi.Client
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func NewHandler(controller *session.Controller, bridge *device.Bridge, store *storeapi.Client) *Handler {
	return &Handler{controller: controller, bridge: bridge, store: store}
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) errorResponse(w http.ResponseWriter, code int, err error) {
	h.CreateResponse(w, Response{Code: code, Error: err.Error()})
}

// statusFromError mirrors a record store status when the failure was a
// BackendError, falling back to 502 for transport failures.
func statusFromError(err error) int {
	var be *storeapi.BackendError
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return http.StatusBadGateway
}

// ActiveSessionHandler refreshes against the store and reports the
// current session state.
func (h *Handler) ActiveSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Refresh(r.Context()); err != nil {
		h.errorResponse(w, statusFromError(err), err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: h.controller.Active()})
}

func (h *Handler) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CourseCode string `json:"course_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.controller.Start(r.Context(), payload.CourseCode)
	if err != nil {
		if errors.Is(err, session.ErrValidation) {
			h.errorResponse(w, http.StatusBadRequest, err)
			return
		}
		h.errorResponse(w, statusFromError(err), err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusCreated, Data: created, Message: "session started"})
}

func (h *Handler) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "course_code")

	if err := h.controller.End(r.Context(), code); err != nil {
		if errors.Is(err, session.ErrValidation) {
			h.errorResponse(w, http.StatusBadRequest, err)
			return
		}
		h.errorResponse(w, statusFromError(err), err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Message: "session ended"})
}

// CaptureHandler publishes the face capture command to the device and
// returns the correlation key. The outcome arrives later as a
// capture-result event.
func (h *Handler) CaptureHandler(w http.ResponseWriter, r *http.Request) {
	key, err := h.bridge.TriggerCapture()
	if err != nil {
		if errors.Is(err, device.ErrNotConnected) {
			h.errorResponse(w, http.StatusServiceUnavailable, err)
			return
		}
		h.errorResponse(w, http.StatusBadGateway, err)
		return
	}

	h.CreateResponse(w, Response{
		Code:    http.StatusAccepted,
		Data:    map[string]string{"correlation_key": key},
		Message: "capture command sent",
	})
}

func (h *Handler) BeginAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.BeginAttendance(r.Context())
	if err != nil {
		h.errorResponse(w, statusFromError(err), err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: result})
}

func (h *Handler) ListStudentsHandler(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.errorResponse(w, statusFromError(err), err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: students})
}

func (h *Handler) CreateStudentHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IndexNo  string `json:"index_no"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	payload.IndexNo = strings.TrimSpace(payload.IndexNo)
	payload.FullName = strings.TrimSpace(payload.FullName)
	if payload.IndexNo == "" || payload.FullName == "" {
		h.errorResponse(w, http.StatusBadRequest, errors.New("index_no and full_name required"))
		return
	}

	student, err := h.store.CreateStudent(r.Context(), payload.IndexNo, payload.FullName)
	if err != nil {
		h.errorResponse(w, statusFromError(err), err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusCreated, Data: student})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "base service is running at port " + os.Getenv("BASE_SERVICE_PORT"),
		Code:    http.StatusOK,
		Data:    map[string]string{"device": h.bridge.State().String()},
	})
}
