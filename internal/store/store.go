// Package store holds the authoritative in-memory state: students,
// classrooms, terminals, users and the append-only frequency log. All
// mutation goes through its methods; every other component is a read-only
// consumer.
package store

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

// PresenceListener consumes PresenceChange domain events.
type PresenceListener func(models.PresenceChange)

// AppendListener observes every log actually appended (duplicates excluded).
type AppendListener func(models.FrequencyLog)

// Store is the single logical writer over entity state. RecordEvent is
// serialized per student; events for different students proceed in parallel.
type Store struct {
	mu         sync.RWMutex
	students   map[string]*models.Student
	classrooms map[string]*models.ClassRoom
	terminals  map[string]*models.Terminal
	users      map[string]*models.User
	byMatric   map[string]string // matricula -> student id
	logs       []models.FrequencyLog
	dedup      map[string]int // dedup key -> index into logs

	lockMu       sync.Mutex
	studentLocks map[string]*sync.Mutex

	logVersion uint64
	seq        uint64

	listenerMu        sync.RWMutex
	presenceListeners []PresenceListener
	appendListeners   []AppendListener

	logger *zap.Logger
}

// New constructs an empty store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		students:     make(map[string]*models.Student),
		classrooms:   make(map[string]*models.ClassRoom),
		terminals:    make(map[string]*models.Terminal),
		users:        make(map[string]*models.User),
		byMatric:     make(map[string]string),
		dedup:        make(map[string]int),
		studentLocks: make(map[string]*sync.Mutex),
		logger:       logger,
	}
}

// OnPresenceChange registers a listener for present-flag transitions.
func (s *Store) OnPresenceChange(fn PresenceListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.presenceListeners = append(s.presenceListeners, fn)
}

// OnAppend registers a listener for appended frequency logs.
func (s *Store) OnAppend(fn AppendListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.appendListeners = append(s.appendListeners, fn)
}

// LogVersion returns a counter bumped on every append. Aggregate caches key
// their entries on it so stale values can never be served.
func (s *Store) LogVersion() uint64 {
	return atomic.LoadUint64(&s.logVersion)
}

func (s *Store) studentLock(studentID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.studentLocks[studentID]
	if !ok {
		l = &sync.Mutex{}
		s.studentLocks[studentID] = l
	}
	return l
}

// RecordEvent appends a frequency log for the student and updates the
// present flag. Duplicate deliveries of the same (student, kind, date, time)
// collapse to the already stored log and are not an error.
func (s *Store) RecordEvent(studentID string, kind models.FrequencyKind, ts time.Time) (*models.FrequencyLog, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event kind")
	}

	lock := s.studentLock(studentID)
	lock.Lock()
	defer lock.Unlock()

	entry := models.FrequencyLog{
		StudentID: studentID,
		Kind:      kind,
		Date:      ts.Format(models.DateLayout),
		Time:      ts.Format(models.TimeLayout),
	}

	s.mu.Lock()
	student, ok := s.students[studentID]
	if !ok {
		s.mu.Unlock()
		return nil, appErrors.ErrUnknownStudent
	}

	if idx, dup := s.dedup[entry.DedupKey()]; dup {
		stored := s.logs[idx]
		s.mu.Unlock()
		s.logger.Debug("duplicate event absorbed",
			zap.String("student_id", studentID), zap.String("kind", string(kind)))
		return &stored, nil
	}

	entry.ID = uuid.NewString()
	entry.Seq = atomic.AddUint64(&s.seq, 1)
	s.logs = append(s.logs, entry)
	s.dedup[entry.DedupKey()] = len(s.logs) - 1
	atomic.AddUint64(&s.logVersion, 1)

	before := student.Present
	if kind.MarksPresent() {
		student.Present = true
		arrival := entry.Time
		student.ArrivalTime = &arrival
	} else {
		student.Present = false
		student.ArrivalTime = nil
	}
	after := student.Present
	s.mu.Unlock()

	s.notifyAppend(entry)
	if before != after {
		s.notifyPresence(models.PresenceChange{
			StudentID: studentID,
			Before:    before,
			After:     after,
			At:        ts,
		})
	}

	return &entry, nil
}

func (s *Store) notifyPresence(change models.PresenceChange) {
	s.listenerMu.RLock()
	listeners := s.presenceListeners
	s.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(change)
	}
}

func (s *Store) notifyAppend(entry models.FrequencyLog) {
	s.listenerMu.RLock()
	listeners := s.appendListeners
	s.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(entry)
	}
}

// LogsByStudent returns the student's logs ordered (date, time) descending,
// ties broken by insertion order.
func (s *Store) LogsByStudent(studentID string) ([]models.FrequencyLog, error) {
	s.mu.RLock()
	if _, ok := s.students[studentID]; !ok {
		s.mu.RUnlock()
		return nil, appErrors.ErrUnknownStudent
	}
	out := make([]models.FrequencyLog, 0, 8)
	for _, l := range s.logs {
		if l.StudentID == studentID {
			out = append(out, l)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MoreRecentThan(out[j])
	})
	return out, nil
}

// Logs returns a snapshot of the whole log in insertion order.
func (s *Store) Logs() []models.FrequencyLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FrequencyLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// ---- students ----

// Student returns a copy of the student record.
func (s *Store) Student(id string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[id]
	if !ok {
		return nil, appErrors.ErrUnknownStudent
	}
	cp := *student
	return &cp, nil
}

// StudentByMatricula resolves the badge/biometric key to a student.
func (s *Store) StudentByMatricula(matricula string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byMatric[matricula]
	if !ok {
		return nil, appErrors.ErrUnknownStudent
	}
	cp := *s.students[id]
	return &cp, nil
}

// Students returns copies of all student records.
func (s *Store) Students() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Matricula < out[j].Matricula })
	return out
}

// StudentsByClassroom lists the students enrolled in the classroom.
func (s *Store) StudentsByClassroom(classroomID string) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.classrooms[classroomID]; !ok {
		return nil, appErrors.ErrUnknownClassroom
	}
	out := make([]models.Student, 0, 16)
	for _, st := range s.students {
		if st.ClassroomID == classroomID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Matricula < out[j].Matricula })
	return out, nil
}

// CreateStudent registers a student. Matricula must be unique system-wide
// and the classroom must exist.
func (s *Store) CreateStudent(student models.Student) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if student.Matricula == "" || student.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name and matricula are required")
	}
	if _, taken := s.byMatric[student.Matricula]; taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "matricula already enrolled")
	}
	if _, ok := s.classrooms[student.ClassroomID]; !ok {
		return nil, appErrors.ErrUnknownClassroom
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if _, exists := s.students[student.ID]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already in use")
	}
	if student.NotificationStatus == "" {
		student.NotificationStatus = models.NotificationPending
	}
	cp := student
	s.students[cp.ID] = &cp
	s.byMatric[cp.Matricula] = cp.ID
	out := cp
	return &out, nil
}

// UpdateStudent replaces mutable fields of an existing student.
func (s *Store) UpdateStudent(student models.Student) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.students[student.ID]
	if !ok {
		return nil, appErrors.ErrUnknownStudent
	}
	if student.Matricula != current.Matricula {
		if _, taken := s.byMatric[student.Matricula]; taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "matricula already enrolled")
		}
	}
	if _, ok := s.classrooms[student.ClassroomID]; !ok {
		return nil, appErrors.ErrUnknownClassroom
	}
	delete(s.byMatric, current.Matricula)
	current.Name = student.Name
	current.Matricula = student.Matricula
	current.GuardianPhone = student.GuardianPhone
	current.PhotoBase64 = student.PhotoBase64
	current.ClassroomID = student.ClassroomID
	current.GuardianUserIDs = student.GuardianUserIDs
	s.byMatric[current.Matricula] = current.ID
	cp := *current
	return &cp, nil
}

// SetNotificationStatus updates the delivery badge shown for the student.
func (s *Store) SetNotificationStatus(studentID string, status models.NotificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[studentID]
	if !ok {
		return appErrors.ErrUnknownStudent
	}
	student.NotificationStatus = status
	return nil
}

// DeleteStudent removes the student record. Logs stay; they are append-only.
func (s *Store) DeleteStudent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok {
		return appErrors.ErrUnknownStudent
	}
	delete(s.byMatric, student.Matricula)
	delete(s.students, id)
	return nil
}

// ---- classrooms ----

// Classroom returns a copy of the classroom record.
func (s *Store) Classroom(id string) (*models.ClassRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.classrooms[id]
	if !ok {
		return nil, appErrors.ErrUnknownClassroom
	}
	cp := *room
	return &cp, nil
}

// Classrooms returns copies of all classroom records.
func (s *Store) Classrooms() []models.ClassRoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ClassRoom, 0, len(s.classrooms))
	for _, c := range s.classrooms {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateClassroom registers a classroom.
func (s *Store) CreateClassroom(room models.ClassRoom) (*models.ClassRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classroom name is required")
	}
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if _, exists := s.classrooms[room.ID]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "classroom id already in use")
	}
	cp := room
	s.classrooms[cp.ID] = &cp
	out := cp
	return &out, nil
}

// UpdateClassroom replaces the classroom's display fields.
func (s *Store) UpdateClassroom(room models.ClassRoom) (*models.ClassRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.classrooms[room.ID]
	if !ok {
		return nil, appErrors.ErrUnknownClassroom
	}
	current.Name = room.Name
	current.Grade = room.Grade
	cp := *current
	return &cp, nil
}

// DeleteClassroom removes an empty classroom. A classroom with enrolled
// students cannot be deleted.
func (s *Store) DeleteClassroom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classrooms[id]; !ok {
		return appErrors.ErrUnknownClassroom
	}
	for _, st := range s.students {
		if st.ClassroomID == id {
			return appErrors.Clone(appErrors.ErrConflict, "classroom still has enrolled students")
		}
	}
	delete(s.classrooms, id)
	return nil
}

// ---- terminals ----

// Terminal returns a copy of the terminal record.
func (s *Store) Terminal(id string) (*models.Terminal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.terminals[id]
	if !ok {
		return nil, appErrors.ErrUnknownTerminal
	}
	cp := *t
	return &cp, nil
}

// Terminals returns copies of all terminal records.
func (s *Store) Terminals() []models.Terminal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Terminal, 0, len(s.terminals))
	for _, t := range s.terminals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) validateTerminalLocked(t models.Terminal) error {
	switch t.Placement {
	case models.PlacementSala:
		if t.ClassroomID == nil || *t.ClassroomID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "sala terminals require a classroom")
		}
		if _, ok := s.classrooms[*t.ClassroomID]; !ok {
			return appErrors.ErrUnknownClassroom
		}
	case models.PlacementPortaria:
		if t.ClassroomID != nil {
			return appErrors.Clone(appErrors.ErrValidation, "portaria terminals must not carry a classroom")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown terminal placement")
	}
	return nil
}

// CreateTerminal registers a terminal enforcing the placement invariant.
func (s *Store) CreateTerminal(t models.Terminal) (*models.Terminal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateTerminalLocked(t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.terminals[t.ID]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "terminal id already in use")
	}
	if t.Status == "" {
		t.Status = models.TerminalOnline
	}
	cp := t
	s.terminals[cp.ID] = &cp
	out := cp
	return &out, nil
}

// UpdateTerminal replaces a terminal record, re-checking placement.
func (s *Store) UpdateTerminal(t models.Terminal) (*models.Terminal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.terminals[t.ID]
	if !ok {
		return nil, appErrors.ErrUnknownTerminal
	}
	if err := s.validateTerminalLocked(t); err != nil {
		return nil, err
	}
	current.Name = t.Name
	current.IP = t.IP
	current.Placement = t.Placement
	current.ClassroomID = t.ClassroomID
	current.Function = t.Function
	if t.Status != "" {
		current.Status = t.Status
	}
	cp := *current
	return &cp, nil
}

// SetTerminalStatus flips the operational status of a terminal.
func (s *Store) SetTerminalStatus(id string, status models.TerminalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.terminals[id]
	if !ok {
		return appErrors.ErrUnknownTerminal
	}
	t.Status = status
	return nil
}

// DeleteTerminal removes the terminal record.
func (s *Store) DeleteTerminal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.terminals[id]; !ok {
		return appErrors.ErrUnknownTerminal
	}
	delete(s.terminals, id)
	return nil
}

// ---- users ----

// UserByEmail resolves login credentials to a user record.
func (s *Store) UserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

// User returns a copy of the user record.
func (s *Store) User(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// CreateUser registers a user. Scoping sets must reference existing
// entities and stay empty for roles that do not use them.
func (s *Store) CreateUser(user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
	}
	switch user.Role {
	case models.RoleProfessor:
		if len(user.AlunoIDs) > 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "professor users carry classroom scope only")
		}
		for _, id := range user.TurmaIDs {
			if _, ok := s.classrooms[id]; !ok {
				return nil, appErrors.ErrUnknownClassroom
			}
		}
	case models.RoleResponsavel:
		if len(user.TurmaIDs) > 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "responsavel users carry student scope only")
		}
		for _, id := range user.AlunoIDs {
			if _, ok := s.students[id]; !ok {
				return nil, appErrors.ErrUnknownStudent
			}
		}
	default:
		if len(user.TurmaIDs) > 0 || len(user.AlunoIDs) > 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "role does not use scoping sets")
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, exists := s.users[user.ID]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user id already in use")
	}
	cp := user
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}
