package handlers

import (
	"database/sql"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"civicwatch/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	h    *Handlers
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setUp() {
	db, mock, _ = sqlmock.New()
	h = NewHandlers(
		database.NewAuthService(db, "test-secret"),
		database.NewUserService(db),
		database.NewReportService(db),
		database.NewStatsService(db),
		database.NewBlobStore(db),
		nil,
		"424242",
	)
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

// identity seeds the context values normally placed there by the auth
// middleware chain.
type identity struct {
	userID string
	email  string
	role   string
}

func seed(id identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id.userID)
		c.Set("user_email", id.email)
		c.Set("user_role", id.role)
	}
}

func perform(router *gin.Engine, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

var reportTestColumns = []string{
	"id", "title", "description", "location", "category", "priority", "contact_number",
	"image_file", "user_id", "user_email", "status", "resolved_image", "resolution_notes",
	"in_progress_by", "in_progress_at", "resolved_by", "resolved_at", "rejected_by", "rejected_at",
	"created_at", "updated_at",
}

func pendingReportRow(id int64, userID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reportTestColumns).AddRow(
		id, "Broken streetlight", "Pole is dark", "5th Avenue", "lighting", "medium", "",
		"", userID, "owner@example.com", "pending", "", nil,
		nil, nil, nil, nil, nil, nil,
		now, now,
	)
}

func newRouter(method, path string, id identity, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Handle(method, path, seed(id), handler)
	return router
}
