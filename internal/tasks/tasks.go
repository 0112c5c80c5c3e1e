// Package tasks runs named background jobs one at a time. Submissions
// while a task is running queue up and start in submission order when
// the running task finishes.
package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is a snapshot of one unit of background work.
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Total     int       `json:"total"`
	Message   string    `json:"message"`
	Log       []string  `json:"log"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Progress is handed to the running task body for reporting.
type Progress func(progress, total int, message string)

// Runner is the body of a task. A returned error fails the task.
type Runner func(report Progress) error

type pendingTask struct {
	id  string
	run Runner
}

// Subscriber receives a snapshot after every task state change.
type Subscriber func(t Task)

// Manager serializes task execution: at most one task runs at a time.
type Manager struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	order   []string
	queue   []pendingTask
	current string

	subMu sync.Mutex
	subs  map[int]Subscriber
	nextS int
}

// NewManager creates an empty task manager.
func NewManager() *Manager {
	return &Manager{
		tasks: make(map[string]*Task),
		subs:  make(map[int]Subscriber),
	}
}

// Submit registers a task and starts it immediately when nothing is
// running, otherwise queues it. The returned id identifies the task in
// Tasks and Get.
func (m *Manager) Submit(name string, run Runner) string {
	now := time.Now()
	t := &Task{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.tasks[t.ID] = t
	m.order = append(m.order, t.ID)
	startNow := m.current == ""
	if startNow {
		m.current = t.ID
	} else {
		m.queue = append(m.queue, pendingTask{id: t.ID, run: run})
	}
	snapshot := *t
	queued := len(m.queue)
	m.mu.Unlock()

	metrics.TaskQueueDepth.Set(float64(queued))
	m.notify(snapshot)
	if startNow {
		go m.execute(t.ID, run)
	} else {
		logging.Debug("task %s (%s) queued behind a running task", t.ID, name)
	}
	return t.ID
}

// Busy reports whether a task is currently running.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != ""
}

func (m *Manager) execute(id string, run Runner) {
	logging.Info("task %s started", id)
	metrics.TaskRunning.Set(1)
	m.update(id, func(t *Task) {
		t.Status = StatusRunning
		t.Log = append(t.Log, "started")
	})

	report := func(progress, total int, message string) {
		m.update(id, func(t *Task) {
			t.Progress = progress
			t.Total = total
			t.Message = message
			t.Log = append(t.Log, message)
		})
	}

	err := runGuarded(run, report)
	if err != nil {
		logging.Warn("task %s failed: %v", id, err)
		m.update(id, func(t *Task) {
			t.Status = StatusFailed
			t.Message = err.Error()
			t.Log = append(t.Log, "failed: "+err.Error())
		})
	} else {
		logging.Info("task %s completed", id)
		m.update(id, func(t *Task) {
			t.Status = StatusCompleted
			t.Log = append(t.Log, "completed")
		})
	}

	m.mu.Lock()
	name := ""
	if t, ok := m.tasks[id]; ok {
		name = t.Name
	}
	m.current = ""
	var next *pendingTask
	if len(m.queue) > 0 {
		n := m.queue[0]
		m.queue = m.queue[1:]
		m.current = n.id
		next = &n
	}
	queued := len(m.queue)
	running := m.current != ""
	m.mu.Unlock()

	status := "completed"
	if err != nil {
		status = "failed"
	}
	metrics.TasksTotal.WithLabelValues(name, status).Inc()
	metrics.TaskQueueDepth.Set(float64(queued))
	if !running {
		metrics.TaskRunning.Set(0)
	}
	if next != nil {
		go m.execute(next.id, next.run)
	}
}

// runGuarded turns a panicking task body into a failed task instead of
// taking the process down.
func runGuarded(run Runner, report Progress) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return run(report)
}

func (m *Manager) update(id string, fn func(t *Task)) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	fn(t)
	t.UpdatedAt = time.Now()
	snapshot := *t
	snapshot.Log = append([]string(nil), t.Log...)
	m.mu.Unlock()

	m.notify(snapshot)
}

// notify calls every subscriber synchronously with a private snapshot.
func (m *Manager) notify(t Task) {
	m.subMu.Lock()
	subs := make([]Subscriber, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.subMu.Unlock()
	for _, s := range subs {
		s(t)
	}
}

// Subscribe registers a listener for task state changes and returns an
// unsubscribe func.
func (m *Manager) Subscribe(s Subscriber) func() {
	m.subMu.Lock()
	id := m.nextS
	m.nextS++
	m.subs[id] = s
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// Get returns a snapshot of one task, or nil for an unknown id.
func (m *Manager) Get(id string) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	snapshot := *t
	snapshot.Log = append([]string(nil), t.Log...)
	return &snapshot
}

// Tasks returns snapshots of all tasks in submission order.
func (m *Manager) Tasks() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.order))
	for _, id := range m.order {
		t := m.tasks[id]
		snapshot := *t
		snapshot.Log = append([]string(nil), t.Log...)
		out = append(out, snapshot)
	}
	return out
}

// ClearCompleted drops tasks in a terminal state from the listing.
func (m *Manager) ClearCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.order[:0]
	for _, id := range m.order {
		if m.tasks[id].Status.Terminal() {
			delete(m.tasks, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}
