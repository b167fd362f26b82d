package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Session is an attendance session as the record store reports it. A
// session with no EndedAt is the active one; the store enforces that at
// most one exists.
type Session struct {
	ID         int64      `json:"id"`
	CourseCode string     `json:"course_code"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

type AttendanceRecord struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	StudentID int64     `json:"student_id"`
	RFIDOk    bool      `json:"rfid_ok"`
	FaceOk    bool      `json:"face_ok"`
	CreatedAt time.Time `json:"created_at"`
}

type Student struct {
	ID       int64  `json:"id"`
	IndexNo  string `json:"index_no"`
	FullName string `json:"full_name"`
}

// CaptureResult is the store's reply to a manual begin-attendance call.
type CaptureResult struct {
	Timestamp          time.Time `json:"timestamp"`
	StudentID          int64     `json:"student_id"`
	RFIDUid            string    `json:"rfid_uid,omitempty"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
}

// BackendError is any non-2xx reply from the record store, keeping the
// response body as the message.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("record store returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the record store HTTP surface.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// ActiveSession returns the current active session, nil when none exists.
func (c *Client) ActiveSession(ctx context.Context) (*Session, error) {
	var s *Session
	if err := c.do(ctx, http.MethodGet, "/sessions/active", nil, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) CreateSession(ctx context.Context, courseCode string) (*Session, error) {
	body := map[string]string{"course_code": courseCode}
	s := &Session{}
	if err := c.do(ctx, http.MethodPost, "/sessions", body, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) EndSession(ctx context.Context, courseCode string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(courseCode)+"/end", nil, nil)
}

func (c *Client) ListAttendance(ctx context.Context, sessionID int64) ([]AttendanceRecord, error) {
	var rows []AttendanceRecord
	path := "/attendance?session_id=" + strconv.FormatInt(sessionID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// BeginAttendance asks the store to consume the pending card scan and
// append an attendance row for it.
func (c *Client) BeginAttendance(ctx context.Context) (*CaptureResult, error) {
	res := &CaptureResult{}
	if err := c.do(ctx, http.MethodPost, "/begin-attendance", nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) ListStudents(ctx context.Context, search string) ([]Student, error) {
	path := "/students"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var students []Student
	if err := c.do(ctx, http.MethodGet, path, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (c *Client) CreateStudent(ctx context.Context, indexNo, fullName string) (*Student, error) {
	body := map[string]string{"index_no": indexNo, "full_name": fullName}
	s := &Student{}
	if err := c.do(ctx, http.MethodPost, "/students", body, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	trimmed := bytes.TrimSpace(raw)
	if out == nil || len(trimmed) == 0 {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
