package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"civicwatch/models"
)

// UserService handles user profile and role operations. The role column is
// the single source of truth for authorization and is re-read on every
// request by the middleware.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new user service instance
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	u := &models.User{ID: userID}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, email, role, avatar_file, created_at, updated_at FROM users WHERE id = ?",
		userID).Scan(&u.Name, &u.Email, &u.Role, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// Create inserts a profile record for the caller. Registration normally
// creates the row already, so this mostly answers with ErrDuplicate.
func (s *UserService) Create(ctx context.Context, userID string, req models.CreateUserRequest) (*models.User, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("user %w", ErrDuplicate)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?)",
		userID, req.Name, req.Email, role)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("user %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return s.GetByID(ctx, userID)
}

// UpdateProfile updates the caller's name and/or avatar reference. It
// returns the previous avatar filename so the caller can delete the
// superseded blob.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, name, avatarFile *string) (*models.User, string, error) {
	current, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	updates := []string{}
	args := []interface{}{}

	if name != nil {
		updates = append(updates, "name = ?")
		args = append(args, *name)
	}
	if avatarFile != nil {
		updates = append(updates, "avatar_file = ?")
		args = append(args, *avatarFile)
	}
	if len(updates) == 0 {
		return current, "", nil
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(updates, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, "", fmt.Errorf("failed to update user: %w", err)
	}

	oldAvatar := ""
	if avatarFile != nil && current.AvatarURL != "" && current.AvatarURL != *avatarFile {
		oldAvatar = current.AvatarURL
	}

	updated, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	return updated, oldAvatar, nil
}

// GetRole reads the stored role for a user.
func (s *UserService) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT role FROM users WHERE id = ?", userID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("user %w", ErrNotFound)
		}
		return "", fmt.Errorf("failed to query role: %w", err)
	}
	return role, nil
}

// SetRole updates the stored role for a user. A single UPDATE against the
// one source of truth, so the elevation is atomic from the caller's view.
func (s *UserService) SetRole(ctx context.Context, userID, role string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET role = ? WHERE id = ?", role, userID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Zero rows also means the role already matched; distinguish.
		var count int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&count); err != nil {
			return fmt.Errorf("failed to check user existence: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("user %w", ErrNotFound)
		}
	}
	return nil
}
