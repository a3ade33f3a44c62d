package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/client"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

type mockAuthRegistrar struct {
	studentResult client.AuthResult
	studentErr    error
	userResult    client.AuthResult
	userErr       error
	studentLogins int
	userLogins    int
	registered    []client.RegistrationInput
	forgotEmails  []string
}

func (m *mockAuthRegistrar) UserLogin(ctx context.Context, creds client.Credentials) (client.AuthResult, error) {
	m.userLogins++
	return m.userResult, m.userErr
}

func (m *mockAuthRegistrar) StudentLogin(ctx context.Context, creds client.Credentials) (client.AuthResult, error) {
	m.studentLogins++
	return m.studentResult, m.studentErr
}

func (m *mockAuthRegistrar) RegisterUser(ctx context.Context, in client.RegistrationInput) (client.AuthResult, error) {
	m.registered = append(m.registered, in)
	return m.userResult, m.userErr
}

func (m *mockAuthRegistrar) RegisterStudent(ctx context.Context, in client.RegistrationInput) (client.AuthResult, error) {
	m.registered = append(m.registered, in)
	return m.studentResult, m.studentErr
}

func (m *mockAuthRegistrar) ForgotPassword(ctx context.Context, email string) error {
	m.forgotEmails = append(m.forgotEmails, email)
	return nil
}

func (m *mockAuthRegistrar) ResetPassword(ctx context.Context, token, password string) error {
	return nil
}

func testAuthService(registrar *mockAuthRegistrar) *AuthService {
	return NewAuthService(registrar, nil, zap.NewNop(), AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "aems-portal",
	})
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	registrar := &mockAuthRegistrar{
		studentResult: client.AuthResult{StudentID: 7, Name: "Ada Lovelace", Role: "student"},
	}
	svc := testAuthService(registrar)

	result, err := svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "7", result.UserID)
	assert.Equal(t, "student", result.Role)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, 1, registrar.studentLogins)
	assert.Zero(t, registrar.userLogins)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "Ada Lovelace", claims.Name)
}

func TestLoginRoutesFacultyToUserEndpoint(t *testing.T) {
	registrar := &mockAuthRegistrar{
		userResult: client.AuthResult{UserID: 42, Role: "faculty"},
	}
	svc := testAuthService(registrar)

	result, err := svc.Login(context.Background(), LoginRequest{Email: "prof@example.com", Password: "pw", Role: "faculty"})
	require.NoError(t, err)
	assert.Equal(t, "42", result.UserID)
	assert.Equal(t, 1, registrar.userLogins)
	assert.Zero(t, registrar.studentLogins)
}

func TestLoginRejectsEmptyCredentialsSynchronously(t *testing.T) {
	registrar := &mockAuthRegistrar{}
	svc := testAuthService(registrar)

	_, err := svc.Login(context.Background(), LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, registrar.studentLogins, "registrar never called")
}

func TestLoginMapsNotFoundToInvalidCredentials(t *testing.T) {
	registrar := &mockAuthRegistrar{studentErr: appErrors.ErrNotFound}
	svc := testAuthService(registrar)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	registrar := &mockAuthRegistrar{
		studentResult: client.AuthResult{StudentID: 7, Role: "student"},
	}
	svc := testAuthService(registrar)
	result, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	other := NewAuthService(registrar, nil, zap.NewNop(), AuthConfig{Secret: "different-secret"})
	_, err = other.ValidateToken(result.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestRegisterStudent(t *testing.T) {
	registrar := &mockAuthRegistrar{
		studentResult: client.AuthResult{StudentID: 9},
	}
	svc := testAuthService(registrar)

	result, err := svc.Register(context.Background(), RegisterRequest{
		Firstname: "Grace",
		Lastname:  "Hopper",
		Email:     "grace@example.com",
		Password:  "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, "9", result.UserID)
	assert.Equal(t, "student", result.Role)
	require.Len(t, registrar.registered, 1)
	assert.Equal(t, "Grace", registrar.registered[0].Firstname)
}

func TestForgotPasswordRequiresEmail(t *testing.T) {
	svc := testAuthService(&mockAuthRegistrar{})
	err := svc.ForgotPassword(context.Background(), "")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
