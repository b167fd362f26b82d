package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amankwa/attendance-services/internal/basesvc/correlator"
	"github.com/amankwa/attendance-services/internal/basesvc/device"
	"github.com/amankwa/attendance-services/internal/basesvc/session"
	"github.com/amankwa/attendance-services/internal/basesvc/storeapi"
)

type fakePoller struct {
	mu     sync.Mutex
	starts []int64
	stops  int
}

func (f *fakePoller) Start(sessionID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, sessionID)
}

func (f *fakePoller) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

type fakePub struct{}

func (fakePub) Publish(string, any) {}

// backend is a stand-in record store holding one optional session.
type backend struct {
	mu     sync.Mutex
	active *storeapi.Session
}

func (b *backend) handler() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/sessions/active", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.active)
	})
	mux.Post("/sessions", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			CourseCode string `json:"course_code"`
		}
		json.NewDecoder(r.Body).Decode(&payload)

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.active != nil {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte("another session is already active"))
			return
		}
		b.active = &storeapi.Session{ID: 7, CourseCode: payload.CourseCode, StartedAt: time.Now()}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(b.active)
	})
	mux.Post("/sessions/{course_code}/end", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.active == nil || b.active.CourseCode != chi.URLParam(r, "course_code") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("no active session for course code"))
			return
		}
		b.active = nil
	})
	mux.Post("/students", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			IndexNo  string `json:"index_no"`
			FullName string `json:"full_name"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(storeapi.Student{ID: 1, IndexNo: payload.IndexNo, FullName: payload.FullName})
	})
	return mux
}

func newTestAPI(t *testing.T) (*httptest.Server, *backend, *fakePoller) {
	t.Helper()

	be := &backend{}
	storeSrv := httptest.NewServer(be.handler())
	t.Cleanup(storeSrv.Close)

	store := storeapi.NewClient(storeSrv.URL)
	poller := &fakePoller{}
	pub := fakePub{}

	controller := session.NewController(store, poller, pub)
	corr := correlator.New(pub, time.Second)
	bridge := device.NewBridge(device.Config{Host: "localhost", Port: 1883}, corr, pub)

	r := chi.NewRouter()
	NewHandler(controller, bridge, store).SetRoutes(r)

	api := httptest.NewServer(r)
	t.Cleanup(api.Close)
	return api, be, poller
}

func doJSON(t *testing.T, method, url, body string) (int, Response) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var rsp Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rsp))
	return resp.StatusCode, rsp
}

func TestStartSessionRoundTrip(t *testing.T) {
	api, be, poller := newTestAPI(t)

	code, rsp := doJSON(t, http.MethodPost, api.URL+"/v1/sessions", `{"course_code":"cpen104"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "session started", rsp.Message)

	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, "CPEN104", data["course_code"])

	be.mu.Lock()
	require.NotNil(t, be.active)
	assert.Equal(t, "CPEN104", be.active.CourseCode)
	be.mu.Unlock()

	poller.mu.Lock()
	assert.Equal(t, []int64{7}, poller.starts)
	poller.mu.Unlock()
}

func TestStartSessionRejectsBlankCourseCode(t *testing.T) {
	api, _, _ := newTestAPI(t)

	code, rsp := doJSON(t, http.MethodPost, api.URL+"/v1/sessions", `{"course_code":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, rsp.Error)
}

func TestStartSessionConflictKeepsStoreStatus(t *testing.T) {
	api, _, _ := newTestAPI(t)

	code, _ := doJSON(t, http.MethodPost, api.URL+"/v1/sessions", `{"course_code":"CPEN104"}`)
	require.Equal(t, http.StatusCreated, code)

	code, rsp := doJSON(t, http.MethodPost, api.URL+"/v1/sessions", `{"course_code":"CPEN212"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, rsp.Error, "already active")
}

func TestActiveSessionReportsNullWhenIdle(t *testing.T) {
	api, _, _ := newTestAPI(t)

	code, rsp := doJSON(t, http.MethodGet, api.URL+"/v1/sessions/active", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, rsp.Data)
}

func TestEndSessionStopsPolling(t *testing.T) {
	api, be, poller := newTestAPI(t)

	code, _ := doJSON(t, http.MethodPost, api.URL+"/v1/sessions", `{"course_code":"CPEN104"}`)
	require.Equal(t, http.StatusCreated, code)

	code, rsp := doJSON(t, http.MethodPost, api.URL+"/v1/sessions/CPEN104/end", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "session ended", rsp.Message)

	be.mu.Lock()
	assert.Nil(t, be.active)
	be.mu.Unlock()

	poller.mu.Lock()
	assert.Equal(t, 1, poller.stops)
	poller.mu.Unlock()
}

func TestEndSessionUnknownCourseMirrorsStoreStatus(t *testing.T) {
	api, _, _ := newTestAPI(t)

	code, _ := doJSON(t, http.MethodPost, api.URL+"/v1/sessions", `{"course_code":"CPEN104"}`)
	require.Equal(t, http.StatusCreated, code)

	code, rsp := doJSON(t, http.MethodPost, api.URL+"/v1/sessions/CPEN999/end", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, rsp.Error, "no active session")
}

func TestCaptureWithoutDeviceIsUnavailable(t *testing.T) {
	api, _, _ := newTestAPI(t)

	code, rsp := doJSON(t, http.MethodPost, api.URL+"/v1/capture", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, rsp.Error, "not connected")
}

func TestCreateStudentValidatesInput(t *testing.T) {
	api, _, _ := newTestAPI(t)

	code, _ := doJSON(t, http.MethodPost, api.URL+"/v1/students", `{"index_no":"10957201"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, rsp := doJSON(t, http.MethodPost, api.URL+"/v1/students", `{"index_no":"10957201","full_name":"Ama Serwaa"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "10957201", rsp.Data.(map[string]interface{})["index_no"])
}
