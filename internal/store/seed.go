package store

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucena-edu/frequencia-api/internal/models"
)

func strPtr(s string) *string { return &s }

// SeedDemoData loads the bundled demonstration dataset: the municipal
// school's classrooms, a sample of students, the four capture terminals and
// one user per role. Every demo account uses the password "lucena123".
func SeedDemoData(s *Store, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	classrooms := []models.ClassRoom{
		{ID: "101", Name: "Turma 101", Grade: "1º Ano - Ensino Fundamental"},
		{ID: "201", Name: "Turma 201", Grade: "2º Ano - Ensino Fundamental"},
		{ID: "301", Name: "Turma 301", Grade: "3º Ano - Ensino Fundamental"},
	}
	for _, c := range classrooms {
		if _, err := s.CreateClassroom(c); err != nil {
			return err
		}
	}

	students := []models.Student{
		{ID: "1", Name: "João Silva", Matricula: "20240001", GuardianPhone: "(83) 99999-0001", ClassroomID: "101", GuardianUserIDs: []string{"u5"}},
		{ID: "2", Name: "Maria Santos", Matricula: "20240002", GuardianPhone: "(83) 99999-0002", ClassroomID: "101"},
		{ID: "3", Name: "Pedro Oliveira", Matricula: "20240003", GuardianPhone: "(83) 99999-0003", ClassroomID: "101"},
		{ID: "4", Name: "Ana Costa", Matricula: "20240004", GuardianPhone: "(83) 99999-0004", ClassroomID: "101"},
		{ID: "5", Name: "Helena Nunes", Matricula: "20240026", GuardianPhone: "(83) 99999-0026", ClassroomID: "101"},
		{ID: "6", Name: "Miguel Pinto", Matricula: "20240027", GuardianPhone: "(83) 99999-0027", ClassroomID: "101"},
		{ID: "31", Name: "Mariazinha Silva", Matricula: "20240031", GuardianPhone: "(83) 99999-0031", ClassroomID: "201", GuardianUserIDs: []string{"u5"}},
		{ID: "32", Name: "Carlos Eduardo", Matricula: "20240032", GuardianPhone: "(83) 99999-0032", ClassroomID: "201"},
		{ID: "33", Name: "Fernanda Lopes", Matricula: "20240033", GuardianPhone: "(83) 99999-0033", ClassroomID: "201"},
	}
	for _, st := range students {
		if _, err := s.CreateStudent(st); err != nil {
			return err
		}
	}

	terminals := []models.Terminal{
		{ID: "t1", Name: "Catraca Principal", IP: "192.168.0.150", Status: models.TerminalOnline, Placement: models.PlacementPortaria, Function: models.FunctionEntradaSaida},
		{ID: "t2", Name: "Portão Lateral", IP: "192.168.0.151", Status: models.TerminalOnline, Placement: models.PlacementPortaria, Function: models.FunctionEntrada},
		{ID: "t3", Name: "Terminal Lab. Informática", IP: "192.168.0.152", Status: models.TerminalOffline, Placement: models.PlacementSala, ClassroomID: strPtr("301"), Function: models.FunctionEntradaSaida},
		{ID: "t4", Name: "Terminal Sala 101", IP: "192.168.0.153", Status: models.TerminalOnline, Placement: models.PlacementSala, ClassroomID: strPtr("101"), Function: models.FunctionEntrada},
	}
	for _, t := range terminals {
		if _, err := s.CreateTerminal(t); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("lucena123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	users := []models.User{
		{ID: "u1", Name: "Carlos Admin", Email: "admin@lucena.edu.br", Role: models.RoleAdmin},
		{ID: "u2", Name: "João Prefeito", Email: "prefeito@lucena.gov.br", Role: models.RolePrefeito},
		{ID: "u3", Name: "Maria Diretora", Email: "diretora@lucena.edu.br", Role: models.RoleDiretor},
		{ID: "u4", Name: "Prof. Ana Lima", Email: "prof.ana@lucena.edu.br", Role: models.RoleProfessor, TurmaIDs: []string{"101", "201"}},
		{ID: "u5", Name: "José da Silva (Pai)", Email: "jose.pai@email.com", Role: models.RoleResponsavel, AlunoIDs: []string{"1", "31"}},
	}
	for _, u := range users {
		u.PasswordHash = string(hash)
		if _, err := s.CreateUser(u); err != nil {
			return err
		}
	}

	// A few days of history for João so the percentage view has data.
	events := []struct {
		kind models.FrequencyKind
		at   string
	}{
		{models.FrequencyAtraso, "2026-02-18T08:20:00"},
		{models.FrequencyEntrada, "2026-02-19T07:05:00"},
		{models.FrequencySaida, "2026-02-19T11:35:00"},
		{models.FrequencyEntrada, "2026-02-20T07:00:00"},
	}
	for _, ev := range events {
		ts, err := time.ParseInLocation("2006-01-02T15:04:05", ev.at, time.Local)
		if err != nil {
			return err
		}
		if _, err := s.RecordEvent("1", ev.kind, ts); err != nil {
			return err
		}
	}

	logger.Info("demo dataset seeded",
		zap.Int("classrooms", len(classrooms)),
		zap.Int("students", len(students)),
		zap.Int("terminals", len(terminals)),
		zap.Int("users", len(users)),
	)
	return nil
}
