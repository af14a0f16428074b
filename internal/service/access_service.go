package service

import (
	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

type accessStore interface {
	Classrooms() []models.ClassRoom
	Classroom(id string) (*models.ClassRoom, error)
	Students() []models.Student
	Student(id string) (*models.Student, error)
	StudentsByClassroom(classroomID string) ([]models.Student, error)
	LogsByStudent(studentID string) ([]models.FrequencyLog, error)
}

// AccessService decides which classrooms, students and logs a user may see.
// The role switch is exhaustive over the known role set; anything else gets
// nothing, so an unmapped role can never see more than it should.
type AccessService struct {
	store accessStore
}

// NewAccessService constructs the access filter.
func NewAccessService(store accessStore) *AccessService {
	return &AccessService{store: store}
}

// VisibleClassrooms returns the classrooms the user may read.
func (s *AccessService) VisibleClassrooms(user models.User) []models.ClassRoom {
	switch user.Role {
	case models.RoleAdmin, models.RolePrefeito, models.RoleDiretor:
		return s.store.Classrooms()
	case models.RoleProfessor:
		owned := stringSet(user.TurmaIDs)
		out := make([]models.ClassRoom, 0, len(owned))
		for _, room := range s.store.Classrooms() {
			if _, ok := owned[room.ID]; ok {
				out = append(out, room)
			}
		}
		return out
	case models.RoleResponsavel:
		// Classroom visibility follows the linked students.
		roomIDs := make(map[string]struct{})
		for _, studentID := range user.AlunoIDs {
			student, err := s.store.Student(studentID)
			if err != nil {
				continue
			}
			roomIDs[student.ClassroomID] = struct{}{}
		}
		out := make([]models.ClassRoom, 0, len(roomIDs))
		for _, room := range s.store.Classrooms() {
			if _, ok := roomIDs[room.ID]; ok {
				out = append(out, room)
			}
		}
		return out
	default:
		return nil
	}
}

// VisibleStudents returns the students the user may read.
func (s *AccessService) VisibleStudents(user models.User) []models.Student {
	switch user.Role {
	case models.RoleAdmin, models.RolePrefeito, models.RoleDiretor:
		return s.store.Students()
	case models.RoleProfessor:
		out := make([]models.Student, 0, 32)
		for _, roomID := range user.TurmaIDs {
			students, err := s.store.StudentsByClassroom(roomID)
			if err != nil {
				continue
			}
			out = append(out, students...)
		}
		return out
	case models.RoleResponsavel:
		out := make([]models.Student, 0, len(user.AlunoIDs))
		for _, studentID := range user.AlunoIDs {
			student, err := s.store.Student(studentID)
			if err != nil {
				continue
			}
			out = append(out, *student)
		}
		return out
	default:
		return nil
	}
}

// CanSeeStudent reports whether the student is inside the user's visible set.
func (s *AccessService) CanSeeStudent(user models.User, studentID string) bool {
	switch user.Role {
	case models.RoleAdmin, models.RolePrefeito, models.RoleDiretor:
		// Full read scope; existence is checked by the log lookup itself.
		return true
	case models.RoleProfessor:
		student, err := s.store.Student(studentID)
		if err != nil {
			return false
		}
		for _, roomID := range user.TurmaIDs {
			if student.ClassroomID == roomID {
				return true
			}
		}
		return false
	case models.RoleResponsavel:
		for _, id := range user.AlunoIDs {
			if id == studentID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CanSeeClassroom reports whether the classroom is visible to the user.
func (s *AccessService) CanSeeClassroom(user models.User, classroomID string) bool {
	for _, room := range s.VisibleClassrooms(user) {
		if room.ID == classroomID {
			return true
		}
	}
	return false
}

// VisibleLogs returns the student's frequency logs, newest first, provided
// the student is in the user's visible set.
func (s *AccessService) VisibleLogs(user models.User, studentID string) ([]models.FrequencyLog, error) {
	if !s.CanSeeStudent(user, studentID) {
		return nil, appErrors.ErrForbidden
	}
	return s.store.LogsByStudent(studentID)
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
