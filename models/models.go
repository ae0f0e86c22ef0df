package models

import "time"

// User represents a registered account. AvatarURL holds the generated blob
// filename of the profile photo, if any.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Report is a civic issue filed by a user. Image fields hold generated blob
// filenames, never client-supplied paths.
type Report struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	Category        string     `json:"category"`
	Priority        string     `json:"priority"`
	ContactNumber   string     `json:"contactNumber,omitempty"`
	ImageURL        string     `json:"imageUrl,omitempty"`
	UserID          string     `json:"userId"`
	UserEmail       string     `json:"userEmail"`
	Status          Status     `json:"status"`
	ResolvedImage   string     `json:"resolvedImage,omitempty"`
	ResolutionNotes string     `json:"resolutionNotes,omitempty"`
	InProgressBy    string     `json:"inProgressBy,omitempty"`
	InProgressAt    *time.Time `json:"inProgressAt,omitempty"`
	ResolvedBy      string     `json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// RegisterRequest represents the request to create a new account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=256"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the authentication request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest represents a token refresh request.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse represents the authentication response.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// CreateUserRequest represents the request to create the caller's own
// profile record when it does not exist yet.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required,max=256"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=user authority"`
}

// CreateReportRequest carries the multipart form fields of a new report.
// The optional image file is read separately from the form.
type CreateReportRequest struct {
	Title         string `form:"title" binding:"required"`
	Description   string `form:"description" binding:"required"`
	Location      string `form:"location" binding:"required"`
	Category      string `form:"category" binding:"required"`
	Priority      string `form:"priority" binding:"omitempty,oneof=low medium high"`
	ContactNumber string `form:"contactNumber"`
}

// UpdateReportRequest carries the multipart form fields of a report update.
// A non-empty Status requests a lifecycle transition; the remaining fields
// edit report details.
type UpdateReportRequest struct {
	Title           *string `form:"title" binding:"omitempty,min=1"`
	Description     *string `form:"description" binding:"omitempty,min=1"`
	Location        *string `form:"location" binding:"omitempty,min=1"`
	Category        *string `form:"category"`
	Priority        *string `form:"priority" binding:"omitempty,oneof=low medium high"`
	ContactNumber   *string `form:"contactNumber"`
	Status          string  `form:"status" binding:"omitempty,oneof=pending in-progress resolved rejected"`
	ResolutionNotes string  `form:"resolutionNotes"`
}

// ReportFilter narrows report listings.
type ReportFilter struct {
	UserID   string
	Status   string `form:"status" binding:"omitempty,oneof=pending in-progress resolved rejected"`
	Location string `form:"location"`
}

// SetupAuthorityRequest carries the out-of-band PIN for role elevation.
type SetupAuthorityRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// SetRoleRequest assigns a role to a user.
type SetRoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=user authority"`
}

// RoleResponse reports the caller's current role as stored.
type RoleResponse struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// LocationStat is a per-location aggregate for the dashboard.
type LocationStat struct {
	Location       string  `json:"location"`
	Count          int     `json:"count"`
	Resolved       int     `json:"resolved"`
	Pending        int     `json:"pending"`
	ResolutionRate float64 `json:"resolutionRate"`
}

// TrendPoint is a day bucket of created reports.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatsResponse is the dashboard aggregate, recomputed on every request.
type StatsResponse struct {
	TotalReports      int            `json:"totalReports"`
	PendingReports    int            `json:"pendingReports"`
	InProgressReports int            `json:"inProgressReports"`
	ResolvedReports   int            `json:"resolvedReports"`
	RejectedReports   int            `json:"rejectedReports"`
	ResolutionRate    float64        `json:"resolutionRate"`
	AvgResolutionDays float64        `json:"avgResolutionDays"`
	LocationStats     []LocationStat `json:"locationStats"`
	ReportsTrend      []TrendPoint   `json:"reportsTrend"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
