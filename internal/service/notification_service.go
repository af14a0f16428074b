package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

// Notifier delivers a guardian message. Implementations talk to whatever
// messaging channel the school uses; failures are transient and retried on
// the next flush.
type Notifier interface {
	Deliver(ctx context.Context, task models.NotificationTask) error
}

// LogNotifier is the detached delivery channel: it writes the message to the
// log and reports success.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Deliver(_ context.Context, task models.NotificationTask) error {
	if n.Logger != nil {
		n.Logger.Info("guardian notification delivered",
			zap.String("student_id", task.StudentID),
			zap.String("phone", task.GuardianPhone),
			zap.String("message", task.Message),
		)
	}
	return nil
}

type notificationStore interface {
	Student(id string) (*models.Student, error)
	SetNotificationStatus(studentID string, status models.NotificationStatus) error
}

// NotificationConfig tunes queue behaviour.
type NotificationConfig struct {
	WindowClose   string // HH:MM, local time
	MessagePrefix string
}

// NotificationService owns the binary connectivity state and the guardian
// notification queue. Absences recorded before the attendance window closes
// become tasks only if still unresolved at window close; one task per
// (student, date), ever. The queue is drained snapshot-then-remove so an
// enqueue during an in-flight flush is never dropped, and one failed
// delivery never aborts the rest of the batch.
type NotificationService struct {
	mu       sync.Mutex
	state    models.ConnectivityState
	absences map[string]models.PresenceChange    // unresolved, key student|date
	tasks    map[string]*models.NotificationTask // queued, key student|date
	order    []string
	handled  map[string]struct{} // (student, date) pairs that already produced a task
	inflight map[string]struct{} // tasks snapshotted by a running flush

	store    notificationStore
	notifier Notifier
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      NotificationConfig
	now      func() time.Time
}

// NewNotificationService constructs the queue in the ONLINE state.
func NewNotificationService(store notificationStore, notifier Notifier, metrics *MetricsService, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = &LogNotifier{Logger: logger}
	}
	if cfg.WindowClose == "" {
		cfg.WindowClose = "08:00"
	}
	return &NotificationService{
		state:    models.ConnectivityOnline,
		absences: make(map[string]models.PresenceChange),
		tasks:    make(map[string]*models.NotificationTask),
		handled:  make(map[string]struct{}),
		inflight: make(map[string]struct{}),
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

func taskKey(studentID, date string) string {
	return studentID + "|" + date
}

// HandlePresenceChange consumes the store's domain events. A true→false
// transition records an unresolved absence; a return to present before
// window close resolves it silently.
func (s *NotificationService) HandlePresenceChange(change models.PresenceChange) {
	date := change.At.Format(models.DateLayout)
	key := taskKey(change.StudentID, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if change.After {
		delete(s.absences, key)
		return
	}
	if _, done := s.handled[key]; done {
		return
	}
	if _, queued := s.tasks[key]; queued {
		return
	}
	s.absences[key] = change
}

// CloseWindow turns every unresolved absence for the date into a queued
// NotificationTask, returning how many were created. Before window close an
// absence is only the student's pending badge; the task is born queued, so
// pending never appears on a task. When ONLINE the new tasks are flushed
// immediately.
func (s *NotificationService) CloseWindow(ctx context.Context, date string) int {
	s.mu.Lock()
	created := 0
	for key, change := range s.absences {
		if change.At.Format(models.DateLayout) != date {
			continue
		}
		student, err := s.store.Student(change.StudentID)
		if err != nil {
			// Student removed since the absence was recorded.
			delete(s.absences, key)
			continue
		}
		task := &models.NotificationTask{
			ID:            uuid.NewString(),
			StudentID:     student.ID,
			StudentName:   student.Name,
			GuardianPhone: student.GuardianPhone,
			Message:       fmt.Sprintf("%s: %s não compareceu à escola em %s.", s.cfg.MessagePrefix, student.Name, date),
			Date:          date,
			State:         models.NotificationQueued,
			CreatedAt:     s.now().UTC(),
		}
		s.tasks[key] = task
		s.order = append(s.order, key)
		s.handled[key] = struct{}{}
		delete(s.absences, key)
		created++

		if err := s.store.SetNotificationStatus(student.ID, models.NotificationQueued); err != nil {
			s.logger.Warn("failed to mark student notification status", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	depth := len(s.tasks)
	online := s.state == models.ConnectivityOnline
	s.mu.Unlock()

	s.metrics.SetQueueDepth(depth)
	if created > 0 {
		s.logger.Info("attendance window closed", zap.String("date", date), zap.Int("tasks_created", created))
	}
	if online && created > 0 {
		s.Flush(ctx)
	}
	return created
}

// Connectivity returns the current state.
func (s *NotificationService) Connectivity() models.ConnectivityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetConnectivity updates the state. The OFFLINE→ONLINE transition flushes
// the queue.
func (s *NotificationService) SetConnectivity(ctx context.Context, state models.ConnectivityState) error {
	if state != models.ConnectivityOnline && state != models.ConnectivityOffline {
		return appErrors.Clone(appErrors.ErrValidation, "connectivity must be ONLINE or OFFLINE")
	}

	s.mu.Lock()
	previous := s.state
	s.state = state
	s.mu.Unlock()

	if previous != state {
		s.logger.Info("connectivity changed", zap.String("from", string(previous)), zap.String("to", string(state)))
	}
	if previous == models.ConnectivityOffline && state == models.ConnectivityOnline {
		s.Flush(ctx)
	}
	return nil
}

// Flush attempts delivery of every queued task independently: success moves
// the task to sent and removes it, failure leaves it queued for the next
// trigger. Snapshotted tasks are marked in flight, so a concurrent flush
// skips them and a guardian never receives the same message twice; tasks
// enqueued while the flush is running are untouched.
func (s *NotificationService) Flush(ctx context.Context) (sent, failed int) {
	s.mu.Lock()
	if s.state != models.ConnectivityOnline {
		s.mu.Unlock()
		return 0, 0
	}
	snapshot := make([]models.NotificationTask, 0, len(s.tasks))
	for _, key := range s.order {
		if _, busy := s.inflight[key]; busy {
			continue
		}
		if task, ok := s.tasks[key]; ok {
			snapshot = append(snapshot, *task)
			s.inflight[key] = struct{}{}
		}
	}
	s.mu.Unlock()

	for _, task := range snapshot {
		err := s.notifier.Deliver(ctx, task)
		key := taskKey(task.StudentID, task.Date)

		s.mu.Lock()
		delete(s.inflight, key)
		stored, ok := s.tasks[key]
		if !ok {
			// Cancelled while in flight.
			s.mu.Unlock()
			continue
		}
		if err != nil {
			stored.Attempts++
			stored.LastError = err.Error()
			failed++
			s.mu.Unlock()
			s.metrics.RecordDelivery(false)
			s.logger.Warn("notification delivery failed, task stays queued",
				zap.String("student_id", task.StudentID), zap.String("date", task.Date), zap.Error(err))
			continue
		}
		stored.State = models.NotificationSent
		delete(s.tasks, key)
		s.removeFromOrder(key)
		sent++
		s.mu.Unlock()

		s.metrics.RecordDelivery(true)
		if err := s.store.SetNotificationStatus(task.StudentID, models.NotificationSent); err != nil {
			s.logger.Warn("failed to mark student notified", zap.String("student_id", task.StudentID), zap.Error(err))
		}
	}

	s.mu.Lock()
	depth := len(s.tasks)
	s.mu.Unlock()
	s.metrics.SetQueueDepth(depth)

	if sent+failed > 0 {
		s.logger.Info("notification queue flushed", zap.Int("sent", sent), zap.Int("failed", failed))
	}
	return sent, failed
}

// removeFromOrder must be called with s.mu held.
func (s *NotificationService) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Tasks returns a snapshot of the queued tasks in creation order.
func (s *NotificationService) Tasks() []models.NotificationTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.NotificationTask, 0, len(s.tasks))
	for _, key := range s.order {
		if task, ok := s.tasks[key]; ok {
			out = append(out, *task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// PendingCount reports how many tasks are waiting for delivery.
func (s *NotificationService) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// CancelTask destroys a queued task. The (student, date) pair stays handled
// so cancellation is final for that day.
func (s *NotificationService) CancelTask(studentID, date string) error {
	key := taskKey(studentID, date)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[key]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "no queued task for student and date")
	}
	delete(s.tasks, key)
	s.removeFromOrder(key)
	return nil
}

// StartWindowScheduler fires CloseWindow at the configured local time every
// day until the context is cancelled.
func (s *NotificationService) StartWindowScheduler(ctx context.Context) {
	closeAt, err := time.Parse(models.TimeLayout, s.cfg.WindowClose)
	if err != nil {
		s.logger.Warn("invalid attendance window close time, scheduler disabled", zap.String("value", s.cfg.WindowClose))
		return
	}

	go func() {
		for {
			now := s.now()
			next := time.Date(now.Year(), now.Month(), now.Day(), closeAt.Hour(), closeAt.Minute(), 0, 0, now.Location())
			if !next.After(now) {
				next = next.Add(24 * time.Hour)
			}
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case fireAt := <-timer.C:
				s.CloseWindow(ctx, fireAt.Format(models.DateLayout))
			}
		}
	}()
}
