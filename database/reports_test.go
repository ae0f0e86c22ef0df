package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"civicwatch/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var reportTestColumns = []string{
	"id", "title", "description", "location", "category", "priority", "contact_number",
	"image_file", "user_id", "user_email", "status", "resolved_image", "resolution_notes",
	"in_progress_by", "in_progress_at", "resolved_by", "resolved_at", "rejected_by", "rejected_at",
	"created_at", "updated_at",
}

func reportRow(id int64, status models.Status, imageFile, resolvedImage string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reportTestColumns).AddRow(
		id, "Pothole", "Deep pothole", "Main St", "Road Maintenance", "medium", "",
		imageFile, "user-1", "user1@example.com", string(status), resolvedImage, nil,
		nil, nil, nil, nil, nil, nil,
		now, now)
}

func TestCreateReport(t *testing.T) {
	it(func() {
		s := NewReportService(db)

		mock.ExpectExec("INSERT INTO reports").
			WithArgs("Pothole", "Deep pothole", "Main St", "Road Maintenance", "medium", "",
				"", "user-1", "user1@example.com", models.StatusPending).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
			WithArgs(int64(7)).
			WillReturnRows(reportRow(7, models.StatusPending, "", ""))

		report, err := s.Create(context.Background(), &models.Report{
			Title:       "Pothole",
			Description: "Deep pothole",
			Location:    "Main St",
			Category:    "Road Maintenance",
			UserID:      "user-1",
			UserEmail:   "user1@example.com",
		})
		if err != nil {
			t.Fatalf("Create: unexpected error: %v", err)
		}
		if report.ID != 7 {
			t.Errorf("Create: expected id 7, got %d", report.ID)
		}
		if report.Status != models.StatusPending {
			t.Errorf("Create: expected status pending, got %s", report.Status)
		}
	})
}

func TestTransition(t *testing.T) {
	it(func() {
		testCases := []struct {
			name            string
			current         models.Status
			next            models.Status
			resolvedImage   string
			existingImage   string
			stampColumn     string
			execExpected    bool
			expectedErr     error
		}{
			{
				name:         "pending to in-progress",
				current:      models.StatusPending,
				next:         models.StatusInProgress,
				stampColumn:  "in_progress_by",
				execExpected: true,
			},
			{
				name:          "in-progress to resolved with new image",
				current:       models.StatusInProgress,
				next:          models.StatusResolved,
				resolvedImage: "abc123.jpg",
				stampColumn:   "resolved_by",
				execExpected:  true,
			},
			{
				name:          "pending to resolved with existing image",
				current:       models.StatusPending,
				next:          models.StatusResolved,
				existingImage: "old456.jpg",
				stampColumn:   "resolved_by",
				execExpected:  true,
			},
			{
				name:        "resolved without any image",
				current:     models.StatusInProgress,
				next:        models.StatusResolved,
				expectedErr: ErrResolutionImageRequired,
			},
			{
				name:        "out of terminal state",
				current:     models.StatusResolved,
				next:        models.StatusInProgress,
				expectedErr: ErrInvalidTransition,
			},
			{
				name:        "backwards to pending",
				current:     models.StatusInProgress,
				next:        models.StatusPending,
				expectedErr: ErrInvalidTransition,
			},
		}

		s := NewReportService(db)
		for _, testCase := range testCases {
			mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
				WithArgs(int64(5)).
				WillReturnRows(reportRow(5, testCase.current, "", testCase.existingImage))

			if testCase.execExpected {
				mock.ExpectExec("UPDATE reports SET status = (.+), " + testCase.stampColumn + " = (.+) WHERE id = (.+) AND status = (.+)").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
					WithArgs(int64(5)).
					WillReturnRows(reportRow(5, testCase.next, "", testCase.resolvedImage))
			}

			report, _, err := s.Transition(context.Background(), 5, testCase.next,
				"authority-1", testCase.resolvedImage, "")

			if testCase.expectedErr != nil {
				if !errors.Is(err, testCase.expectedErr) {
					t.Errorf("%s: expected error %v, got %v", testCase.name, testCase.expectedErr, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("%s: unexpected error: %v", testCase.name, err)
				continue
			}
			if report.Status != testCase.next {
				t.Errorf("%s: expected status %s, got %s", testCase.name, testCase.next, report.Status)
			}
		}
	})
}

func TestTransitionLostRace(t *testing.T) {
	it(func() {
		s := NewReportService(db)

		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
			WithArgs(int64(5)).
			WillReturnRows(reportRow(5, models.StatusPending, "", ""))
		// A concurrent transition changed the status between read and write.
		mock.ExpectExec("UPDATE reports SET status = (.+) WHERE id = (.+) AND status = (.+)").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, _, err := s.Transition(context.Background(), 5, models.StatusInProgress, "authority-1", "", "")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Transition: expected ErrInvalidTransition on lost race, got %v", err)
		}
	})
}

func TestListFilters(t *testing.T) {
	it(func() {
		testCases := []struct {
			name         string
			filter       models.ReportFilter
			expectedSQL  string
			expectedArgs []driverValue
		}{
			{
				name:        "no filter",
				filter:      models.ReportFilter{},
				expectedSQL: "SELECT (.+) FROM reports ORDER BY created_at DESC",
			},
			{
				name:         "owner and status",
				filter:       models.ReportFilter{UserID: "user-1", Status: "pending"},
				expectedSQL:  "SELECT (.+) FROM reports WHERE user_id = (.+) AND status = (.+) ORDER BY created_at DESC",
				expectedArgs: []driverValue{"user-1", "pending"},
			},
			{
				name:         "location substring",
				filter:       models.ReportFilter{Location: "Main"},
				expectedSQL:  "SELECT (.+) FROM reports WHERE LOWER\\(location\\) LIKE (.+) ORDER BY created_at DESC",
				expectedArgs: []driverValue{"%main%"},
			},
		}

		s := NewReportService(db)
		for _, testCase := range testCases {
			expectation := mock.ExpectQuery(testCase.expectedSQL)
			if len(testCase.expectedArgs) > 0 {
				expectation.WithArgs(testCase.expectedArgs...)
			}
			expectation.WillReturnRows(reportRow(1, models.StatusPending, "", ""))

			reports, err := s.List(context.Background(), testCase.filter)
			if err != nil {
				t.Errorf("%s, List: unexpected error: %v", testCase.name, err)
				continue
			}
			if len(reports) != 1 {
				t.Errorf("%s, List: expected 1 report, got %d", testCase.name, len(reports))
			}
		}
	})
}

func TestUpdateDetailsImmutable(t *testing.T) {
	it(func() {
		s := NewReportService(db)

		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
			WithArgs(int64(3)).
			WillReturnRows(reportRow(3, models.StatusResolved, "", "img.jpg"))

		title := "New title"
		_, _, err := s.UpdateDetails(context.Background(), 3, models.UpdateReportRequest{Title: &title}, "")
		if !errors.Is(err, ErrReportImmutable) {
			t.Errorf("UpdateDetails: expected ErrReportImmutable, got %v", err)
		}
	})
}

func TestDeleteReportNotFound(t *testing.T) {
	it(func() {
		s := NewReportService(db)

		mock.ExpectExec("DELETE FROM reports WHERE id = (.+)").
			WithArgs(int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.Delete(context.Background(), 99)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete: expected ErrNotFound, got %v", err)
		}
	})
}

// driverValue keeps the test tables readable.
type driverValue = driver.Value
