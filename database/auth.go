package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"civicwatch/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 1 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// AuthService handles account registration, credential checks and token
// issuance. Tokens carry the user identity only; the role is always read
// back from the users table by the authorization middleware.
type AuthService struct {
	db        *sql.DB
	jwtSecret []byte
}

// NewAuthService creates a new authentication service instance
func NewAuthService(db *sql.DB, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
	}
}

// Register creates a new user with email/password authentication.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	exists, err := s.userExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("user %w", ErrDuplicate)
	}

	userID := uuid.NewString()

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, role) VALUES (?, ?, ?, ?, ?)",
		userID, req.Name, req.Email, string(passwordHash), models.RoleUser)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("user %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	now := time.Now()
	return &models.User{
		ID:        userID,
		Name:      req.Name,
		Email:     req.Email,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Login authenticates a user and returns the user ID.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	var userID, passwordHash string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users WHERE email = ?", req.Email).
		Scan(&userID, &passwordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to query user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		return "", ErrInvalidCredentials
	}

	return userID, nil
}

// GenerateTokenPair generates both access and refresh tokens
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID string) (string, string, error) {
	// Calculate expiration times once to ensure consistency
	now := time.Now()
	accessExpiry := now.Add(accessTokenTTL)
	refreshExpiry := now.Add(refreshTokenTTL)

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "access",
		"exp":     accessExpiry.Unix(),
		"iat":     now.Unix(),
	})

	accessTokenString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return "", "", err
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "refresh",
		"exp":     refreshExpiry.Unix(),
		"iat":     now.Unix(),
	})

	refreshTokenString, err := refreshToken.SignedString(s.jwtSecret)
	if err != nil {
		return "", "", err
	}

	if err := s.storeTokens(ctx, userID, accessTokenString, refreshTokenString, accessExpiry, refreshExpiry); err != nil {
		return "", "", err
	}

	return accessTokenString, refreshTokenString, nil
}

// ValidateToken validates a JWT access token and returns the user ID.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return "", err
	}

	// Refresh tokens never authenticate a request directly.
	tokenType, _ := claims["type"].(string)
	if tokenType != "access" {
		return "", errors.New("cannot use refresh token for authentication")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("invalid user id in token")
	}

	if err := s.verifyTokenInDB(ctx, userID, tokenString, "access"); err != nil {
		return "", err
	}

	return userID, nil
}

// ValidateRefreshToken validates a refresh token and returns the user ID.
func (s *AuthService) ValidateRefreshToken(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "refresh" {
		return "", errors.New("not a refresh token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("invalid user id in token")
	}

	if err := s.verifyTokenInDB(ctx, userID, tokenString, "refresh"); err != nil {
		return "", err
	}

	return userID, nil
}

// InvalidateToken removes a token from the database
func (s *AuthService) InvalidateToken(ctx context.Context, userID, tokenString string) error {
	tokenHash := hashToken(tokenString)

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM auth_tokens WHERE user_id = ? AND token_hash = ?",
		userID, tokenHash)
	return err
}

func (s *AuthService) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) storeTokens(ctx context.Context, userID, accessToken, refreshToken string, accessExpiry, refreshExpiry time.Time) error {
	// Drop expired tokens for this user before storing the new pair.
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM auth_tokens WHERE user_id = ? AND expires_at < NOW()", userID); err != nil {
		return fmt.Errorf("failed to clean expired tokens: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (user_id, token_hash, token_type, expires_at)
		 VALUES (?, ?, 'access', ?), (?, ?, 'refresh', ?)`,
		userID, hashToken(accessToken), accessExpiry,
		userID, hashToken(refreshToken), refreshExpiry)
	if err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	return nil
}

func (s *AuthService) verifyTokenInDB(ctx context.Context, userID, tokenString, tokenType string) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_tokens
		 WHERE user_id = ? AND token_hash = ? AND token_type = ? AND expires_at > NOW()`,
		userID, hashToken(tokenString), tokenType).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to verify token: %w", err)
	}
	if count == 0 {
		return errors.New("token not found or expired")
	}
	return nil
}

func (s *AuthService) userExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
