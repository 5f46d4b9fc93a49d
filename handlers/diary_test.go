package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDiaryEntryValidation(t *testing.T) {
	env := newTestEnv(t)
	h := NewDiaryHandler(env.deps)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"blank title", `{"title":"   ","summary":"shipped the gig board"}`, "title is required"},
		{"missing summary", `{"title":"Monday"}`, "summary is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h.Create, jsonRequest(http.MethodPost, "/api/diary/entries", tt.body), memberUser(), nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorOf(t, rec))
		})
	}
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateDiaryEntryWithActionItems(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`INSERT INTO "diary_entries"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	env.mock.ExpectQuery(`INSERT INTO "diary_action_items"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(20).AddRow(21))
	env.mock.ExpectCommit()

	body := `{"title":" Monday ","summary":"shipped the gig board","action_items":["write release notes","  ","ping Acme"]}`
	rec := serve(NewDiaryHandler(env.deps).Create, jsonRequest(http.MethodPost, "/api/diary/entries", body), memberUser(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, float64(5), out["id"])
	assert.Equal(t, "Monday", out["title"])
	items := out["action_items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "write release notes", first["text"])
	assert.Equal(t, float64(5), first["diary_entry_id"])
	assert.Equal(t, false, first["is_completed"])
	assert.Nil(t, first["sent_to_wip_at"])
	assert.Equal(t, "ping Acme", items[1].(map[string]interface{})["text"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateDiaryEntryWithoutActionItems(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`INSERT INTO "diary_entries"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))
	env.mock.ExpectCommit()

	rec := serve(NewDiaryHandler(env.deps).Create, jsonRequest(http.MethodPost, "/api/diary/entries", `{"title":"Tuesday","summary":"quiet day"}`), memberUser(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []interface{}{}, decode(t, rec)["action_items"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestListDiaryEntries(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.mock.ExpectQuery(`FROM "diary_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "entry_timestamp", "title", "summary"}).
			AddRow(6, 1, now, "Tuesday", "quiet day").
			AddRow(5, 1, now.Add(-24*time.Hour), "Monday", "shipped the gig board"))
	env.mock.ExpectQuery(`FROM "diary_action_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "diary_entry_id", "user_id", "text", "is_completed"}).
			AddRow(20, 5, 1, "write release notes", true))

	rec := serve(NewDiaryHandler(env.deps).List, jsonRequest(http.MethodGet, "/api/diary/entries", ""), memberUser(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "Tuesday", out[0]["title"])
	assert.Empty(t, out[0]["action_items"])
	monday := out[1]["action_items"].([]interface{})
	require.Len(t, monday, 1)
	assert.Equal(t, true, monday[0].(map[string]interface{})["is_completed"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestUpdateActionItem(t *testing.T) {
	itemColumns := []string{"id", "diary_entry_id", "user_id", "text", "is_completed"}

	t.Run("marks completed", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(`FROM "diary_action_items"`).
			WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(20, 5, 1, "write release notes", false))
		env.mock.ExpectExec(`UPDATE "diary_action_items"`).WillReturnResult(sqlmock.NewResult(0, 1))

		rec := serve(NewDiaryHandler(env.deps).UpdateActionItem, jsonRequest(http.MethodPatch, "/", `{"is_completed":true}`), memberUser(), map[string]string{"id": "20"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, true, decode(t, rec)["is_completed"])
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("someone else's item", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(`FROM "diary_action_items"`).WillReturnRows(sqlmock.NewRows(itemColumns))

		rec := serve(NewDiaryHandler(env.deps).UpdateActionItem, jsonRequest(http.MethodPatch, "/", `{"is_completed":true}`), memberUser(), map[string]string{"id": "20"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "action item not found", errorOf(t, rec))
	})

	t.Run("flag required", func(t *testing.T) {
		env := newTestEnv(t)
		rec := serve(NewDiaryHandler(env.deps).UpdateActionItem, jsonRequest(http.MethodPatch, "/", `{}`), memberUser(), map[string]string{"id": "20"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "is_completed is required", errorOf(t, rec))
	})
}
