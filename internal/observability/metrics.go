package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu                   sync.Mutex
	requestCount         map[string]int64
	requestDuration      map[string]time.Duration
	errorCount           map[string]int64
	bookings             map[string]int64
	transitions          map[string]int64
	auditFailures        int64
	notificationFailures int64
	notificationsDropped int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests             map[string]int64 `json:"requests"`
	Errors               map[string]int64 `json:"errors"`
	Bookings             map[string]int64 `json:"bookings"`
	Transitions          map[string]int64 `json:"transitions"`
	AuditFailures        int64            `json:"audit_failures"`
	NotificationFailures int64            `json:"notification_failures"`
	NotificationsDropped int64            `json:"notifications_dropped"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		requestDuration: make(map[string]time.Duration),
		errorCount:      make(map[string]int64),
		bookings:        make(map[string]int64),
		transitions:     make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordBooking counts booking attempts by category and result code ("ok" on success).
func (m *Metrics) RecordBooking(category, result string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[category+"|"+result]++
}

// RecordTransition counts committed lifecycle operations.
func (m *Metrics) RecordTransition(operation string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[operation]++
}

// RecordAuditFailure counts audit entries that could not be stored.
func (m *Metrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditFailures++
}

// RecordNotificationFailure counts notifications that failed to publish or deliver.
func (m *Metrics) RecordNotificationFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationFailures++
}

// RecordNotificationDropped counts notifications rejected by a full queue.
func (m *Metrics) RecordNotificationDropped() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsDropped++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:             copyCounts(m.requestCount),
		Errors:               copyCounts(m.errorCount),
		Bookings:             copyCounts(m.bookings),
		Transitions:          copyCounts(m.transitions),
		AuditFailures:        m.auditFailures,
		NotificationFailures: m.notificationFailures,
		NotificationsDropped: m.notificationsDropped,
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
