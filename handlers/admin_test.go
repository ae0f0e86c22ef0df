package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSetupAuthorityWrongPIN(t *testing.T) {
	it(func() {
		router := newRouter(http.MethodPost, "/admin/setup-authority",
			identity{userID: "user-1", role: "user"}, h.SetupAuthority)

		w := perform(router, http.MethodPost, "/admin/setup-authority",
			"application/json", jsonBody(`{"pin":"000000"}`))

		assert.Equal(t, http.StatusForbidden, w.Code)
		// A wrong PIN must never touch the database.
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetupAuthority(t *testing.T) {
	it(func() {
		mock.ExpectExec("UPDATE users SET role = (.+) WHERE id = (.+)").
			WithArgs("authority", "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		router := newRouter(http.MethodPost, "/admin/setup-authority",
			identity{userID: "user-1", role: "user"}, h.SetupAuthority)

		w := perform(router, http.MethodPost, "/admin/setup-authority",
			"application/json", jsonBody(`{"pin":"424242"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"authority"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetRoleUnknownUser(t *testing.T) {
	it(func() {
		mock.ExpectExec("UPDATE users SET role = (.+) WHERE id = (.+)").
			WithArgs("user", "ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE id = (.+)").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		router := newRouter(http.MethodPost, "/admin/set-role",
			identity{userID: "authority-1", role: "authority"}, h.SetRole)

		w := perform(router, http.MethodPost, "/admin/set-role",
			"application/json", jsonBody(`{"user_id":"ghost","role":"user"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMyRole(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT role FROM users WHERE id = (.+)").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("authority"))

		router := newRouter(http.MethodGet, "/admin/my-role",
			identity{userID: "user-1", email: "alice@example.com", role: "authority"}, h.MyRole)

		w := perform(router, http.MethodGet, "/admin/my-role", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"uid":"user-1"`)
		assert.Contains(t, w.Body.String(), `"role":"authority"`)
	})
}
