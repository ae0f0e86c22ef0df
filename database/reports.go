package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"civicwatch/models"

	"github.com/apex/log"
)

// ReportService handles report storage and the lifecycle state machine.
type ReportService struct {
	db *sql.DB
}

// NewReportService creates a new report service instance
func NewReportService(db *sql.DB) *ReportService {
	return &ReportService{db: db}
}

const reportColumns = `id, title, description, location, category, priority, contact_number,
		image_file, user_id, user_email, status, resolved_image, resolution_notes,
		in_progress_by, in_progress_at, resolved_by, resolved_at, rejected_by, rejected_at,
		created_at, updated_at`

// Create stores a new report. Status is always pending on creation.
func (s *ReportService) Create(ctx context.Context, r *models.Report) (*models.Report, error) {
	if r.Priority == "" {
		r.Priority = "medium"
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO reports
		 (title, description, location, category, priority, contact_number, image_file, user_id, user_email, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.Description, r.Location, r.Category, r.Priority, r.ContactNumber,
		r.ImageURL, r.UserID, r.UserEmail, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get report id: %w", err)
	}

	return s.Get(ctx, id)
}

// Get retrieves a single report by ID.
func (s *ReportService) Get(ctx context.Context, id int64) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE id = ?", id)

	r, err := scanReport(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("report %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query report: %w", err)
	}
	return r, nil
}

// List returns reports matching the filter, newest first. Location matches
// as a case-insensitive substring, like the dashboard search box expects.
func (s *ReportService) List(ctx context.Context, f models.ReportFilter) ([]models.Report, error) {
	query := "SELECT " + reportColumns + " FROM reports"
	conds := []string{}
	args := []interface{}{}

	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Location != "" {
		conds = append(conds, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// UpdateDetails edits report fields while the report is still pending. It
// returns the updated report and the superseded image filename, if any, so
// the caller can delete the old blob.
func (s *ReportService) UpdateDetails(ctx context.Context, id int64, req models.UpdateReportRequest, imageFile string) (*models.Report, string, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if current.Status != models.StatusPending {
		return nil, "", ErrReportImmutable
	}

	updates := []string{}
	args := []interface{}{}

	set := func(column string, v *string) {
		if v != nil {
			updates = append(updates, column+" = ?")
			args = append(args, *v)
		}
	}
	set("title", req.Title)
	set("description", req.Description)
	set("location", req.Location)
	set("category", req.Category)
	set("priority", req.Priority)
	set("contact_number", req.ContactNumber)
	if imageFile != "" {
		updates = append(updates, "image_file = ?")
		args = append(args, imageFile)
	}

	if len(updates) == 0 {
		return current, "", nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE reports SET %s WHERE id = ?", strings.Join(updates, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, "", fmt.Errorf("failed to update report: %w", err)
	}

	oldImage := ""
	if imageFile != "" && current.ImageURL != "" {
		oldImage = current.ImageURL
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return updated, oldImage, nil
}

// Transition moves a report to the next lifecycle state, stamping the actor
// and time for audit. resolutionImage is the freshly uploaded blob filename,
// empty when none was supplied with the request. It returns the updated
// report and the superseded resolution image filename, if any.
func (s *ReportService) Transition(ctx context.Context, id int64, next models.Status, actorID, resolutionImage, notes string) (*models.Report, string, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if !current.Status.CanTransition(next) {
		return nil, "", fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, next)
	}

	// Resolution needs photographic evidence, either already attached or
	// supplied with this request.
	if next == models.StatusResolved && resolutionImage == "" && current.ResolvedImage == "" {
		return nil, "", ErrResolutionImageRequired
	}

	now := time.Now()
	updates := []string{"status = ?"}
	args := []interface{}{next}

	switch next {
	case models.StatusInProgress:
		updates = append(updates, "in_progress_by = ?", "in_progress_at = ?")
		args = append(args, actorID, now)
	case models.StatusResolved:
		updates = append(updates, "resolved_by = ?", "resolved_at = ?")
		args = append(args, actorID, now)
	case models.StatusRejected:
		updates = append(updates, "rejected_by = ?", "rejected_at = ?")
		args = append(args, actorID, now)
	}
	if resolutionImage != "" {
		updates = append(updates, "resolved_image = ?")
		args = append(args, resolutionImage)
	}
	if notes != "" {
		updates = append(updates, "resolution_notes = ?")
		args = append(args, notes)
	}

	// The status guard in the WHERE clause makes the transition atomic at
	// the row level; a concurrent transition loses and changes nothing.
	args = append(args, id, current.Status)
	query := fmt.Sprintf("UPDATE reports SET %s WHERE id = ? AND status = ?", strings.Join(updates, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to transition report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.WithField("report", id).Warn("transition lost to a concurrent status change")
		return nil, "", fmt.Errorf("%w: report changed concurrently", ErrInvalidTransition)
	}

	oldResolved := ""
	if resolutionImage != "" && current.ResolvedImage != "" {
		oldResolved = current.ResolvedImage
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return updated, oldResolved, nil
}

// Delete removes a report row. Blob cleanup is the caller's responsibility;
// there is no transaction spanning the row delete and the blob deletes, so a
// crash in between can orphan a blob.
func (s *ReportService) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("report %w", ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r               models.Report
		resolutionNotes sql.NullString
		inProgressBy    sql.NullString
		resolvedBy      sql.NullString
		rejectedBy      sql.NullString
		inProgressAt    sql.NullTime
		resolvedAt      sql.NullTime
		rejectedAt      sql.NullTime
	)

	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Location, &r.Category, &r.Priority,
		&r.ContactNumber, &r.ImageURL, &r.UserID, &r.UserEmail, &r.Status,
		&r.ResolvedImage, &resolutionNotes,
		&inProgressBy, &inProgressAt, &resolvedBy, &resolvedAt, &rejectedBy, &rejectedAt,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.ResolutionNotes = resolutionNotes.String
	r.InProgressBy = inProgressBy.String
	r.ResolvedBy = resolvedBy.String
	r.RejectedBy = rejectedBy.String
	if inProgressAt.Valid {
		r.InProgressAt = &inProgressAt.Time
	}
	if resolvedAt.Valid {
		r.ResolvedAt = &resolvedAt.Time
	}
	if rejectedAt.Valid {
		r.RejectedAt = &rejectedAt.Time
	}
	return &r, nil
}
