package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civicwatch/database"
	"civicwatch/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddlewareRejectsBadHeaders(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	auth := database.NewAuthService(db, "test-secret")

	router := gin.New()
	router.GET("/protected", AuthMiddleware(auth), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	testCases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc123"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if testCase.header != "" {
				req.Header.Set("Authorization", testCase.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireUserResolvesRoleFromDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	users := database.NewUserService(db)
	now := time.Now()

	mock.ExpectQuery("SELECT name, email, role, avatar_file, created_at, updated_at FROM users WHERE id = ?").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"name", "email", "role", "avatar_file", "created_at", "updated_at"}).
			AddRow("Alice", "alice@example.com", models.RoleAuthority, "", now, now))

	router := gin.New()
	router.GET("/me",
		func(c *gin.Context) { c.Set("user_id", "user-1") },
		RequireUser(users),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"role": c.GetString("user_role")})
		})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.RoleAuthority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireUserUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	users := database.NewUserService(db)

	mock.ExpectQuery("SELECT name, email, role, avatar_file, created_at, updated_at FROM users WHERE id = ?").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	router := gin.New()
	router.GET("/me",
		func(c *gin.Context) { c.Set("user_id", "gone") },
		RequireUser(users),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	testCases := []struct {
		name     string
		role     string
		expected int
	}{
		{name: "authority passes", role: models.RoleAuthority, expected: http.StatusOK},
		{name: "regular user denied", role: models.RoleUser, expected: http.StatusForbidden},
		{name: "no role denied", role: "", expected: http.StatusForbidden},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/gated",
				func(c *gin.Context) {
					if testCase.role != "" {
						c.Set("user_role", testCase.role)
					}
				},
				RequireRole(models.RoleAuthority),
				func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))

			assert.Equal(t, testCase.expected, w.Code)
		})
	}
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", extractToken("Bearer abc"))
	assert.Equal(t, "", extractToken("bearer abc"))
	assert.Equal(t, "", extractToken("abc"))
}
