package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/reservalo/agenda-api/internal/models"
	appErrors "github.com/reservalo/agenda-api/pkg/errors"
)

type mockAuthScheduleRepo struct {
	config        *models.ScheduleConfig
	getConfigErr  error
	updatedHash   string
	updateHashErr error
}

func (m *mockAuthScheduleRepo) GetConfig(ctx context.Context) (*models.ScheduleConfig, error) {
	if m.getConfigErr != nil {
		return nil, m.getConfigErr
	}
	return m.config, nil
}

func (m *mockAuthScheduleRepo) UpdateSecretHash(ctx context.Context, hash string) error {
	if m.updateHashErr != nil {
		return m.updateHashErr
	}
	m.updatedHash = hash
	return nil
}

type mockAuditRepo struct {
	logs      []*models.AuditLog
	createErr error
}

func (m *mockAuditRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.logs = append(m.logs, log)
	return nil
}

func authTestConfig() AuthConfig {
	return AuthConfig{TokenSecret: "secret", TokenExpiry: time.Hour, Issuer: "agenda-api"}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	repo := &mockAuthScheduleRepo{config: &models.ScheduleConfig{AdminSecretHash: string(hash)}}
	audits := &mockAuditRepo{}
	svc := NewAuthService(repo, audits, nil, zap.NewNop(), authTestConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Secret: "hunter2", IP: "203.0.113.7"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audits.logs[0].Action)
	assert.Equal(t, "203.0.113.7", audits.logs[0].IPAddress)
}

func TestAuthServiceLoginWrongSecret(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	repo := &mockAuthScheduleRepo{config: &models.ScheduleConfig{AdminSecretHash: string(hash)}}
	audits := &mockAuditRepo{}
	svc := NewAuthService(repo, audits, nil, zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Secret: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Empty(t, audits.logs)
}

func TestAuthServiceLoginMissingSecret(t *testing.T) {
	repo := &mockAuthScheduleRepo{config: &models.ScheduleConfig{}}
	svc := NewAuthService(repo, &mockAuditRepo{}, nil, zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginConfigError(t *testing.T) {
	repo := &mockAuthScheduleRepo{getConfigErr: errors.New("db down")}
	svc := NewAuthService(repo, &mockAuditRepo{}, nil, zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Secret: "hunter2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSurvivesAuditFailure(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	repo := &mockAuthScheduleRepo{config: &models.ScheduleConfig{AdminSecretHash: string(hash)}}
	audits := &mockAuditRepo{createErr: errors.New("audit down")}
	svc := NewAuthService(repo, audits, nil, zap.NewNop(), authTestConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Secret: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

func TestAuthServiceRotateSecret(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.DefaultCost)
	repo := &mockAuthScheduleRepo{config: &models.ScheduleConfig{AdminSecretHash: string(hash)}}
	audits := &mockAuditRepo{}
	svc := NewAuthService(repo, audits, nil, zap.NewNop(), authTestConfig())

	err := svc.RotateSecret(context.Background(), models.SecretUpdateRequest{CurrentSecret: "old-secret", NewSecret: "new-secret-42"})
	require.NoError(t, err)
	require.NotEmpty(t, repo.updatedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.updatedHash), []byte("new-secret-42")))
	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionSecretRotate, audits.logs[0].Action)
}

func TestAuthServiceRotateSecretWrongCurrent(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.DefaultCost)
	repo := &mockAuthScheduleRepo{config: &models.ScheduleConfig{AdminSecretHash: string(hash)}}
	svc := NewAuthService(repo, &mockAuditRepo{}, nil, zap.NewNop(), authTestConfig())

	err := svc.RotateSecret(context.Background(), models.SecretUpdateRequest{CurrentSecret: "guess", NewSecret: "new-secret-42"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updatedHash)
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(&mockAuthScheduleRepo{}, &mockAuditRepo{}, nil, zap.NewNop(), authTestConfig())
	token, issuedAt, err := svc.generateAccessToken()
	require.NoError(t, err)
	assert.False(t, issuedAt.IsZero())

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.AdminRole, claims.Role)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "agenda-api", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewAuthService(&mockAuthScheduleRepo{}, &mockAuditRepo{}, nil, zap.NewNop(), AuthConfig{TokenSecret: "other", TokenExpiry: time.Hour})
	token, _, err := issuer.generateAccessToken()
	require.NoError(t, err)

	svc := NewAuthService(&mockAuthScheduleRepo{}, &mockAuditRepo{}, nil, zap.NewNop(), authTestConfig())
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenExpired(t *testing.T) {
	issuer := NewAuthService(&mockAuthScheduleRepo{}, &mockAuditRepo{}, nil, zap.NewNop(), AuthConfig{TokenSecret: "secret", TokenExpiry: -time.Minute})
	token, _, err := issuer.generateAccessToken()
	require.NoError(t, err)

	svc := NewAuthService(&mockAuthScheduleRepo{}, &mockAuditRepo{}, nil, zap.NewNop(), authTestConfig())
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
