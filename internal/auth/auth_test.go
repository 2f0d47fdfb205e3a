package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reda-store/internal/apperr"
	"reda-store/internal/database"
	"reda-store/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	tok, err := tokens.Generate("admin-1", "owner@reda.lk", models.RoleOwner)
	require.NoError(t, err)

	claims, err := tokens.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, "owner@reda.lk", claims.Email)
	assert.Equal(t, models.RoleOwner, claims.Role)
}

func TestTokenRejected(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	tok, err := tokens.Generate("admin-1", "a@b.lk", models.RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Validate(tok)
	assert.Error(t, err)

	expired := NewTokens("s3cret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Validate(tok)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{AdminID: "admin-1"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Validate(raw)
	assert.Error(t, err)
}

func newService(t *testing.T, code string) *Service {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	return NewService(db, NewTokens("s3cret", time.Hour), code)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService(t, "letmein")
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterRequest{
		Name: "Reda", Email: "Owner@Reda.lk", Password: "secret1", Role: models.RoleOwner, RegisterCode: "letmein",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "owner@reda.lk", sess.Admin.Email)
	assert.NotEqual(t, "secret1", sess.Admin.PasswordHash)

	login, err := svc.Login(ctx, LoginRequest{Email: "owner@reda.lk", Password: "secret1"})
	require.NoError(t, err)
	claims, err := svc.Tokens().Validate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Admin.ID, claims.AdminID)

	me, err := svc.Me(ctx, claims.AdminID)
	require.NoError(t, err)
	assert.Equal(t, "Reda", me.Name)

	var logs []models.AuditLog
	require.NoError(t, svc.db.Where("action = ?", "LOGIN").Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	svc := newService(t, "letmein")
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{
		Name: "Cashier", Email: "c@reda.lk", Password: "secret1", Role: models.RoleCashier, RegisterCode: "letmein",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "c@reda.lk", Password: "wrong!"})
	assert.Equal(t, "Invalid email or password", apperr.Message(err))
	_, err2 := svc.Login(ctx, LoginRequest{Email: "nobody@reda.lk", Password: "secret1"})
	assert.Equal(t, apperr.Message(err), apperr.Message(err2))
	assert.True(t, errors.Is(err2, apperr.ErrUnauthorized))
}

func TestRegisterRejections(t *testing.T) {
	svc := newService(t, "letmein")
	ctx := context.Background()
	req := RegisterRequest{Name: "A", Email: "a@reda.lk", Password: "secret1", Role: models.RoleAdmin, RegisterCode: "nope"}

	_, err := svc.Register(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	req.RegisterCode = "letmein"
	_, err = svc.Register(ctx, req)
	require.NoError(t, err)
	_, err = svc.Register(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	req.Email, req.Role = "b@reda.lk", "ROOT"
	_, err = svc.Register(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = newService(t, "").Register(ctx, RegisterRequest{RegisterCode: ""})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestSeedOnlyOnEmptyDatabase(t *testing.T) {
	svc := newService(t, "")
	ctx := context.Background()

	created, err := svc.Seed(ctx, "Owner", "owner@reda.lk", "secret1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Seed(ctx, "Owner", "second@reda.lk", "secret1")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Login(ctx, LoginRequest{Email: "owner@reda.lk", Password: "secret1"})
	assert.NoError(t, err)
}
