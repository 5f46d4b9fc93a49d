package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"b0ase/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeRevocations struct {
	revoked map[string]time.Duration
	err     error
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: map[string]time.Duration{}}
}

func (f *fakeRevocations) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[jti]
	return ok, nil
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestGenerateAndValidateToken(t *testing.T) {
	a := NewAuth("secret", time.Hour, nil, nil)
	token, err := a.GenerateToken(&models.User{ID: 9, Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)

	other := NewAuth("different", time.Hour, nil, nil)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	a := NewAuth("secret", -time.Minute, nil, nil)
	token, err := a.GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)
	_, err = a.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRequireWithoutToken(t *testing.T) {
	a := NewAuth("secret", time.Hour, nil, nil)
	rec := httptest.NewRecorder()
	a.Require(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
}

func TestRequireWithGarbageTokenClearsCookie(t *testing.T) {
	a := NewAuth("secret", time.Hour, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "not-a-jwt"})
	rec := httptest.NewRecorder()
	a.Require(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestRequireRejectsRevokedToken(t *testing.T) {
	store := newFakeRevocations()
	a := NewAuth("secret", time.Hour, nil, store)
	token, err := a.GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	require.NoError(t, a.Revoke(context.Background(), claims))
	assert.Greater(t, store.revoked[claims.ID], 59*time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Require(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"session has ended"}`, rec.Body.String())
}

func TestRequireFailsClosedWhenStoreErrors(t *testing.T) {
	store := newFakeRevocations()
	store.err = errors.New("redis down")
	a := NewAuth("secret", time.Hour, nil, store)
	token, err := a.GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Require(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireLoadsUser(t *testing.T) {
	db, mock := newMockDB(t)
	a := NewAuth("secret", time.Hour, db, newFakeRevocations())
	token, err := a.GenerateToken(&models.User{ID: 5, Role: models.RoleMember})
	require.NoError(t, err)

	mock.ExpectQuery(`FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).AddRow(5, "ada@example.com", "MEMBER"))
	mock.ExpectQuery(`FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username"}).AddRow(1, 5, "ada"))

	var seen *models.User
	var seenClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r.Context())
		seenClaims = GetClaimsFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	a.Require(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, "ada@example.com", seen.Email)
	require.NotNil(t, seen.Profile)
	assert.Equal(t, "ada", seen.Profile.Username)
	require.NotNil(t, seenClaims)
	assert.Equal(t, uint(5), seenClaims.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	a := NewAuth("secret", time.Hour, db, nil)
	token, err := a.GenerateToken(&models.User{ID: 5})
	require.NoError(t, err)

	mock.ExpectQuery(`FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Require(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalPassesAnonymous(t *testing.T) {
	a := NewAuth("secret", time.Hour, nil, nil)
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, GetUserFromContext(r.Context()))
	})
	a.Optional(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/projects", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/projects", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{Role: models.RoleMember}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(WithUser(req.Context(), &models.User{Role: models.RoleAdmin}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePasswordChange(t *testing.T) {
	h := RequirePasswordChange(okHandler)
	user := &models.User{MustChangePassword: true}

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req = req.WithContext(WithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/password", nil)
	req = req.WithContext(WithUser(req.Context(), user))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))

	now = now.Add(limiterIdleTTL + time.Minute)
	rl.Allow("9.9.9.9")
	assert.Len(t, rl.visitors, 1)
}

func TestRateLimitHandler(t *testing.T) {
	h := RateLimit(1, 1)(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
