package correlator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/amankwa/attendance-services/internal/events"
)

// TypeFaceCapture is the only command type the device understands today.
const TypeFaceCapture = "face_capture"

// Outcome statuses reported in capture-result events.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusTimedOut = "timeout"
)

// Response is a decoded message from the device response channel. The
// channel carries no command identifier, so matching is by command type.
type Response struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	DeviceID string `json:"pi"`
}

type pending struct {
	key      string
	issuedAt time.Time
	timer    *time.Timer
}

// Correlator matches broadcast responses back to the command that caused
// them. One pending slot per command type: issuing a new command replaces
// the previous registration, which is abandoned and never resolves.
// Every tracked command resolves exactly once, with a response or a
// timeout.
type Correlator struct {
	pub     events.Publisher
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pending
}

func New(pub events.Publisher, timeout time.Duration) *Correlator {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Correlator{
		pub:     pub,
		timeout: timeout,
		pending: make(map[string]*pending),
	}
}

// Register tracks a freshly published command and returns its correlation
// key. A command of the same type still pending is abandoned.
func (c *Correlator) Register(cmdType string) string {
	key := uuid.New().String()

	c.mu.Lock()
	if prev, ok := c.pending[cmdType]; ok {
		prev.timer.Stop()
		log.Infof("command %s (%s) superseded before a response arrived", cmdType, prev.key)
	}
	p := &pending{key: key, issuedAt: time.Now()}
	p.timer = time.AfterFunc(c.timeout, func() { c.expire(cmdType, key) })
	c.pending[cmdType] = p
	c.mu.Unlock()

	return key
}

// Cancel withdraws a registration whose command was never sent. Nothing
// is published; the slot is only cleared when the key still matches.
func (c *Correlator) Cancel(cmdType, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[cmdType]; ok && p.key == key {
		p.timer.Stop()
		delete(c.pending, cmdType)
	}
}

// HandleResponse resolves the pending command of the matching type, or
// reports the response as unsolicited when nothing is pending.
func (c *Correlator) HandleResponse(cmdType string, r Response) {
	c.mu.Lock()
	p, ok := c.pending[cmdType]
	if ok {
		p.timer.Stop()
		delete(c.pending, cmdType)
	}
	c.mu.Unlock()

	if !ok {
		log.Warnf("unsolicited %s response from device %q", cmdType, r.DeviceID)
		c.pub.Publish(events.TypeUnsolicitedResponse, events.UnsolicitedResponse{
			Status:   r.Status,
			Message:  r.Message,
			DeviceID: r.DeviceID,
		})
		return
	}

	status := StatusFailure
	if r.Status == StatusSuccess {
		status = StatusSuccess
	}
	c.pub.Publish(events.TypeCaptureResult, events.CaptureResult{
		CommandType: cmdType,
		Key:         p.key,
		Status:      status,
		Message:     r.Message,
		DeviceID:    r.DeviceID,
	})
}

// expire resolves a command as timed out, unless it was already resolved
// or replaced by a newer registration.
func (c *Correlator) expire(cmdType, key string) {
	c.mu.Lock()
	p, ok := c.pending[cmdType]
	if !ok || p.key != key {
		c.mu.Unlock()
		return
	}
	delete(c.pending, cmdType)
	c.mu.Unlock()

	log.Warnf("command %s (%s) timed out after %s", cmdType, key, c.timeout)
	c.pub.Publish(events.TypeCaptureResult, events.CaptureResult{
		CommandType: cmdType,
		Key:         key,
		Status:      StatusTimedOut,
		Message:     "no response from device",
	})
}
