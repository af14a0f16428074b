package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

type mockUserStore struct {
	user *models.User
}

func (m *mockUserStore) UserByEmail(email string) (*models.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, appErrors.ErrNotFound
	}
	cp := *m.user
	return &cp, nil
}

func testAuthService(user *models.User) *AuthService {
	return NewAuthService(&mockUserStore{user: user}, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "secret",
		Expiration: time.Hour,
		Issuer:     "frequencia-api",
	})
}

func TestLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("lucena123"), bcrypt.DefaultCost)
	svc := testAuthService(&models.User{
		ID:           "u1",
		Name:         "Direção",
		Email:        "diretor@lucena.pb.gov.br",
		PasswordHash: string(hash),
		Role:         models.RoleDiretor,
	})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "diretor@lucena.pb.gov.br", Password: "lucena123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RoleDiretor, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleDiretor, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("lucena123"), bcrypt.DefaultCost)
	svc := testAuthService(&models.User{ID: "u1", Email: "diretor@lucena.pb.gov.br", PasswordHash: string(hash), Role: models.RoleDiretor})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "diretor@lucena.pb.gov.br", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := testAuthService(nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@lucena.pb.gov.br", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestScopedClaimsRoundTrip(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("lucena123"), bcrypt.DefaultCost)
	svc := testAuthService(&models.User{
		ID:           "u5",
		Email:        "responsavel@lucena.pb.gov.br",
		PasswordHash: string(hash),
		Role:         models.RoleResponsavel,
		AlunoIDs:     []string{"s1", "s31"},
	})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "responsavel@lucena.pb.gov.br", Password: "lucena123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	user := claims.User()
	assert.Equal(t, []string{"s1", "s31"}, user.AlunoIDs)
	assert.Empty(t, user.TurmaIDs)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("lucena123"), bcrypt.DefaultCost)
	svc := testAuthService(&models.User{ID: "u1", Email: "diretor@lucena.pb.gov.br", PasswordHash: string(hash), Role: models.RoleDiretor})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "diretor@lucena.pb.gov.br", Password: "lucena123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
