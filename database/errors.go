package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Sentinel errors returned by the database services. Handlers map these to
// HTTP status codes; everything else is treated as an internal error.
var (
	ErrNotFound                = errors.New("not found")
	ErrDuplicate               = errors.New("already exists")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidTransition       = errors.New("illegal status transition")
	ErrResolutionImageRequired = errors.New("resolution image is required to mark as resolved")
	ErrReportImmutable         = errors.New("report details can no longer be edited")
	ErrUnsupportedImageType    = errors.New("only jpeg and png images are allowed")
	ErrBlobTooLarge            = errors.New("image exceeds the 5MB size limit")
)

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation.
// The existence pre-checks race with concurrent inserts; the unique key is
// what actually decides.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
