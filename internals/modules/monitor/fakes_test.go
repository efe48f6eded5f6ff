package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"endpoint-monitor/internals/modules/endpoint"
	"endpoint-monitor/internals/modules/notification"
	"endpoint-monitor/internals/modules/probe"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

var errInjected = errors.New("injected store failure")

// memStore is an in-memory EndpointStore and ObservationStore.
type memStore struct {
	mu         sync.Mutex
	endpoints  map[uuid.UUID]endpoint.Endpoint
	logs       []endpoint.MonitorLog
	listErr    error
	failAppend map[uuid.UUID]bool
	failUpdate map[uuid.UUID]bool
	// returned by a failing Append when set, errInjected otherwise
	appendErr error
	lastQuery endpoint.DueQuery
}

func newMemStore() *memStore {
	return &memStore{
		endpoints:  map[uuid.UUID]endpoint.Endpoint{},
		failAppend: map[uuid.UUID]bool{},
		failUpdate: map[uuid.UUID]bool{},
	}
}

func (m *memStore) add(ep endpoint.Endpoint) endpoint.Endpoint {
	if ep.ID == uuid.Nil {
		ep.ID = uuid.New()
	}
	if ep.UserID == uuid.Nil {
		ep.UserID = uuid.New()
	}
	if ep.Status == "" {
		ep.Status = endpoint.StatusActive
	}
	if ep.TimeoutMs == 0 {
		ep.TimeoutMs = 5000
	}
	if ep.Url == "" {
		ep.Url = "https://" + ep.ID.String() + ".test"
	}
	m.mu.Lock()
	m.endpoints[ep.ID] = ep
	m.mu.Unlock()
	return ep
}

func (m *memStore) get(id uuid.UUID) endpoint.Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoints[id]
}

func (m *memStore) logsFor(id uuid.UUID) []endpoint.MonitorLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []endpoint.MonitorLog
	for _, l := range m.logs {
		if l.EndpointID == id {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) ListDue(_ context.Context, q endpoint.DueQuery) ([]endpoint.Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	if m.listErr != nil {
		return nil, m.listErr
	}

	cutoff := q.Now.Add(-q.Staleness)
	var due []endpoint.Endpoint
	for _, ep := range m.endpoints {
		if !ep.LastChecked.Valid || !ep.LastChecked.Time.After(cutoff) {
			due = append(due, ep)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		a, b := due[i].LastChecked, due[j].LastChecked
		if a.Valid != b.Valid {
			return !a.Valid
		}
		return a.Time.Before(b.Time)
	})
	if len(due) > q.Limit {
		due = due[:q.Limit]
	}
	return due, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status endpoint.Status, checkedAt time.Time, responseTimeMs int64) (endpoint.Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate[id] {
		return endpoint.Endpoint{}, errInjected
	}
	ep, ok := m.endpoints[id]
	if !ok {
		return endpoint.Endpoint{}, errors.New("not found")
	}
	ep.Status = status
	ep.LastChecked = null.TimeFrom(checkedAt)
	ep.ResponseTimeMs = null.IntFrom(responseTimeMs)
	m.endpoints[id] = ep
	return ep, nil
}

func (m *memStore) Append(_ context.Context, cmd endpoint.AppendLogCmd) (endpoint.MonitorLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppend[cmd.EndpointID] {
		if m.appendErr != nil {
			return endpoint.MonitorLog{}, m.appendErr
		}
		return endpoint.MonitorLog{}, errInjected
	}
	l := endpoint.MonitorLog{
		ID:             uuid.New(),
		EndpointID:     cmd.EndpointID,
		Timestamp:      cmd.Timestamp,
		Success:        cmd.Success,
		StatusCode:     cmd.StatusCode,
		ResponseTimeMs: cmd.ResponseTimeMs,
		ErrorMessage:   cmd.ErrorMessage,
		ErrorType:      cmd.ErrorType,
	}
	m.logs = append(m.logs, l)
	return l, nil
}

// memNotifications is a notification.Appender.
type memNotifications struct {
	mu    sync.Mutex
	items []notification.Notification
	err   error
}

func (m *memNotifications) Create(_ context.Context, cmd notification.CreateNotificationCmd) (notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return notification.Notification{}, m.err
	}
	n := notification.Notification{
		ID:         uuid.New(),
		UserID:     cmd.UserID,
		EndpointID: cmd.EndpointID,
		Type:       cmd.Type,
		Message:    cmd.Message,
		Timestamp:  time.Now(),
	}
	m.items = append(m.items, n)
	return n, nil
}

func (m *memNotifications) forEndpoint(id uuid.UUID) []notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notification.Notification
	for _, n := range m.items {
		if n.EndpointID == id {
			out = append(out, n)
		}
	}
	return out
}

func (m *memNotifications) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// scriptedProber returns a fixed outcome per url, falling back to def.
type scriptedProber struct {
	mu       sync.Mutex
	outcomes map[string]probe.Outcome
	errs     map[string]error
	def      probe.Outcome
	delay    time.Duration
	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

func newScriptedProber(def probe.Outcome) *scriptedProber {
	return &scriptedProber{
		outcomes: map[string]probe.Outcome{},
		errs:     map[string]error{},
		def:      def,
	}
}

func (p *scriptedProber) set(url string, o probe.Outcome) {
	p.mu.Lock()
	p.outcomes[url] = o
	p.mu.Unlock()
}

// fail makes Probe return err for url, as it does for a url it cannot request.
func (p *scriptedProber) fail(url string, err error) {
	p.mu.Lock()
	p.errs[url] = err
	p.mu.Unlock()
}

func (p *scriptedProber) Probe(ctx context.Context, url string, _ time.Duration, _ map[string]string) (probe.Outcome, error) {
	p.calls.Add(1)
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		seen := p.maxSeen.Load()
		if cur <= seen || p.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[url]; ok {
		return probe.Outcome{}, err
	}
	if o, ok := p.outcomes[url]; ok {
		return o, nil
	}
	return p.def, nil
}

type memCache struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]endpoint.StatusSnapshot
}

func newMemCache() *memCache {
	return &memCache{snaps: map[uuid.UUID]endpoint.StatusSnapshot{}}
}

func (c *memCache) StoreStatus(_ context.Context, s endpoint.StatusSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps[s.EndpointID] = s
	return nil
}

func (c *memCache) GetStatus(_ context.Context, id uuid.UUID) (endpoint.StatusSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snaps[id]
	return s, ok, nil
}

func (c *memCache) DelStatus(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snaps, id)
	return nil
}

func okOutcome(ms int64) probe.Outcome {
	return probe.Outcome{Success: true, StatusCode: null.IntFrom(200), Elapsed: time.Duration(ms) * time.Millisecond}
}

func networkOutcome() probe.Outcome {
	return probe.Failed(probe.ErrNetwork, "read tcp 10.0.0.1:443: connection timed out", 15*time.Millisecond)
}

func downOutcome() probe.Outcome {
	o := probe.Failed(probe.ErrHTTPStatus, "unexpected status code 500", 30*time.Millisecond)
	o.StatusCode = null.IntFrom(500)
	return o
}
