package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
)

type attendanceStore interface {
	Classroom(id string) (*models.ClassRoom, error)
	Classrooms() []models.ClassRoom
	StudentsByClassroom(classroomID string) ([]models.Student, error)
	Student(id string) (*models.Student, error)
	LogsByStudent(studentID string) ([]models.FrequencyLog, error)
	LogVersion() uint64
}

// AttendanceService is the pure read side over the frequency log. Counts and
// percentages are recomputed on every query from the live student set and an
// immutable log snapshot; nothing here is ever stored back.
type AttendanceService struct {
	store  attendanceStore
	cache  *CacheService
	logger *zap.Logger
}

// NewAttendanceService constructs the aggregator.
func NewAttendanceService(store attendanceStore, cache *CacheService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{store: store, cache: cache, logger: logger}
}

// ClassroomSummary derives present/absent/total for one classroom.
func (s *AttendanceService) ClassroomSummary(ctx context.Context, classroomID string) (*models.ClassroomSummary, error) {
	cacheKey := fmt.Sprintf("agg:class:%s:%d", classroomID, s.store.LogVersion())
	var cached models.ClassroomSummary
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	room, err := s.store.Classroom(classroomID)
	if err != nil {
		return nil, err
	}
	students, err := s.store.StudentsByClassroom(classroomID)
	if err != nil {
		return nil, err
	}

	summary := &models.ClassroomSummary{ClassRoom: *room, TotalStudents: len(students)}
	for _, st := range students {
		if st.Present {
			summary.PresentCount++
		} else {
			summary.AbsentCount++
		}
	}

	_ = s.cache.Set(ctx, cacheKey, summary, 0)
	return summary, nil
}

// Summarize derives aggregates for the given classrooms.
func (s *AttendanceService) Summarize(ctx context.Context, rooms []models.ClassRoom) ([]models.ClassroomSummary, error) {
	out := make([]models.ClassroomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary, err := s.ClassroomSummary(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

// StudentPercentage computes daysWithAttendance/daysObserved over the
// student's distinct log dates. A day counts as attended when it holds an
// entrada or atraso event; an evadido never retroactively un-attends a day.
// No observed days yields 100: absence of data assumes full attendance,
// a policy choice rather than a measurement.
func (s *AttendanceService) StudentPercentage(ctx context.Context, studentID string) (float64, error) {
	cacheKey := fmt.Sprintf("agg:student:%s:%d", studentID, s.store.LogVersion())
	var cached float64
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	logs, err := s.store.LogsByStudent(studentID)
	if err != nil {
		return 0, err
	}

	observed := make(map[string]struct{})
	attended := make(map[string]struct{})
	for _, l := range logs {
		observed[l.Date] = struct{}{}
		if l.Kind.CountsAsAttendance() {
			attended[l.Date] = struct{}{}
		}
	}

	percent := 100.0
	if len(observed) > 0 {
		percent = float64(len(attended)) / float64(len(observed)) * 100
	}

	_ = s.cache.Set(ctx, cacheKey, percent, 0)
	return percent, nil
}

// StudentsWithAttendance lists a classroom's students with their derived
// attendance percentage.
func (s *AttendanceService) StudentsWithAttendance(ctx context.Context, classroomID string) ([]models.StudentAttendance, error) {
	students, err := s.store.StudentsByClassroom(classroomID)
	if err != nil {
		return nil, err
	}
	out := make([]models.StudentAttendance, 0, len(students))
	for _, st := range students {
		percent, err := s.StudentPercentage(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.StudentAttendance{Student: st, AttendancePercent: percent})
	}
	return out, nil
}
