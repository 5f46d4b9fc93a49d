package handlers

import (
	"net/http"
	"testing"
	"time"

	"b0ase/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inviteColumns = []string{"id", "code", "email", "role", "used", "created_by", "expires_at", "project_id"}

func inviteRow(used bool, expiresAt time.Time, projectID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(inviteColumns).AddRow(4, "abc123", "grace@example.com", "MEMBER", used, 99, expiresAt, projectID)
}

func TestInviteInfo(t *testing.T) {
	t.Run("code required", func(t *testing.T) {
		env := newTestEnv(t)
		rec := serve(NewAuthHandler(env.deps).InviteInfo, jsonRequest(http.MethodGet, "/api/auth/invite", ""), nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "code is required", errorOf(t, rec))
	})

	invalid := []struct {
		name string
		rows *sqlmock.Rows
	}{
		{"unknown code", sqlmock.NewRows(inviteColumns)},
		{"expired", inviteRow(false, time.Now().Add(-time.Minute), nil)},
		{"already used", inviteRow(true, time.Now().Add(time.Hour), nil)},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mock.ExpectQuery(`FROM "invites"`).WillReturnRows(tt.rows)

			rec := serve(NewAuthHandler(env.deps).InviteInfo, jsonRequest(http.MethodGet, "/api/auth/invite?code=abc123", ""), nil, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "invitation not found", errorOf(t, rec))
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}

	t.Run("valid", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(`FROM "invites"`).WillReturnRows(inviteRow(false, time.Now().Add(time.Hour), nil))

		rec := serve(NewAuthHandler(env.deps).InviteInfo, jsonRequest(http.MethodGet, "/api/auth/invite?code=abc123", ""), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		out := decode(t, rec)
		assert.Equal(t, "grace@example.com", out["email"])
		assert.NotEmpty(t, out["expires_at"])
		assert.Nil(t, out["code"])
	})
}

func TestSetPasswordRejectsBadUsername(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`FROM "invites"`).WillReturnRows(inviteRow(false, time.Now().Add(time.Hour), nil))
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	env.mock.ExpectRollback()

	body := `{"code":"abc123","password":"longenough","username":"A!"}`
	rec := serve(NewAuthHandler(env.deps).SetPassword, jsonRequest(http.MethodPost, "/api/auth/set-password", body), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errInvalidUsername.Error(), errorOf(t, rec))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSetPasswordExpiredInvite(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`FROM "invites"`).WillReturnRows(inviteRow(false, time.Now().Add(-time.Minute), 7))

	body := `{"code":"abc123","password":"longenough","username":"grace"}`
	rec := serve(NewAuthHandler(env.deps).SetPassword, jsonRequest(http.MethodPost, "/api/auth/set-password", body), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSetPasswordCreatesClientWithProjectAccess(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`FROM "invites"`).WillReturnRows(inviteRow(false, time.Now().Add(time.Hour), 7))
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	env.mock.ExpectQuery(`INSERT INTO "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	env.mock.ExpectQuery(`INSERT INTO "profiles"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	env.mock.ExpectQuery(`SELECT count\(\*\) FROM "project_memberships"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	env.mock.ExpectQuery(`INSERT INTO "project_memberships"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	env.mock.ExpectExec(`UPDATE "invites"`).WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	body := `{"code":"abc123","password":"longenough","username":" Grace "}`
	rec := serve(NewAuthHandler(env.deps).SetPassword, jsonRequest(http.MethodPost, "/api/auth/set-password", body), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	user := out["user"].(map[string]interface{})
	assert.Equal(t, float64(3), user["id"])
	assert.Equal(t, "grace@example.com", user["email"])
	assert.Equal(t, "grace", user["profile"].(map[string]interface{})["username"])
	assert.NotEmpty(t, out["token"])
	assert.Contains(t, rec.Header().Get("Set-Cookie"), middleware.TokenCookie+"=")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSetPasswordResetsExistingAccount(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`FROM "invites"`).WillReturnRows(inviteRow(false, time.Now().Add(time.Hour), 7))
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "must_change_password"}).AddRow(3, "grace@example.com", "MEMBER", true))
	env.mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(`SELECT count\(\*\) FROM "project_memberships"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	env.mock.ExpectExec(`UPDATE "invites"`).WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	body := `{"code":"abc123","password":"brand-new-pass"}`
	rec := serve(NewAuthHandler(env.deps).SetPassword, jsonRequest(http.MethodPost, "/api/auth/set-password", body), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, false, out["must_change_password"])
	assert.Equal(t, false, out["user"].(map[string]interface{})["must_change_password"])
	assert.Contains(t, rec.Header().Get("Set-Cookie"), middleware.TokenCookie+"=")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
