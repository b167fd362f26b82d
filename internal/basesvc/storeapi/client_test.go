package storeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveSessionDecodesNullAsNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sessions/active", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	s, err := c.ActiveSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestActiveSessionDecodesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Session{ID: 7, CourseCode: "CPEN104", StartedAt: time.Now()})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	s, err := c.ActiveSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, int64(7), s.ID)
	assert.Equal(t, "CPEN104", s.CourseCode)
	assert.Nil(t, s.EndedAt)
}

func TestCreateSessionSendsCourseCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CPEN104", body["course_code"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Session{ID: 1, CourseCode: "CPEN104", StartedAt: time.Now()})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	s, err := c.CreateSession(context.Background(), "CPEN104")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)
}

func TestNonSuccessBecomesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"another session is already active"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateSession(context.Background(), "CPEN104")
	require.Error(t, err)

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusConflict, be.StatusCode)
	assert.Contains(t, be.Message, "already active")
}

func TestEndSessionEscapesCourseCode(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.EndSession(context.Background(), "CPEN 104"))
	assert.Equal(t, "/sessions/CPEN%20104/end", gotPath)
}

func TestListAttendanceFiltersBySession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attendance", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("session_id"))
		json.NewEncoder(w).Encode([]AttendanceRecord{
			{ID: 1, SessionID: 7, StudentID: 100, RFIDOk: true},
			{ID: 2, SessionID: 7, StudentID: 101, RFIDOk: true, FaceOk: true},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	rows, err := c.ListAttendance(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[1].FaceOk)
}

func TestListStudentsSearchQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ama", r.URL.Query().Get("search"))
		json.NewEncoder(w).Encode([]Student{{ID: 3, IndexNo: "10957201", FullName: "Ama Serwaa"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	students, err := c.ListStudents(context.Background(), "ama")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "10957201", students[0].IndexNo)
}

func TestBeginAttendance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/begin-attendance", r.URL.Path)
		json.NewEncoder(w).Encode(CaptureResult{
			Timestamp: time.Now(), StudentID: 42, RFIDUid: "04a1b2c3", RegistrationNumber: "10957201",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.BeginAttendance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.StudentID)
	assert.Equal(t, "04a1b2c3", res.RFIDUid)
}

func TestContextCancellationPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL)
	_, err := c.ActiveSession(ctx)
	assert.Error(t, err)
}
