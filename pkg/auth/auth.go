// Package auth provides JWT admin sessions and HMAC-signed API keys for
// the scheduling endpoints.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/database"
)

// Service verifies credentials and mints tokens. Secrets are injected
// from config; the package holds no process-wide state.
type Service struct {
	jwtSecret    []byte
	masterSecret []byte
}

// NewService builds an auth service from the configured secrets.
func NewService(jwtSecret, masterSecret string) *Service {
	return &Service{
		jwtSecret:    []byte(jwtSecret),
		masterSecret: []byte(masterSecret),
	}
}

// Claims represents the JWT claims for an admin session.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CreateToken issues a 24h JWT for an admin user.
func (s *Service) CreateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken parses and validates an admin JWT.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateAPIKey creates a signed API key of the form "userID.signature".
func (s *Service) GenerateAPIKey(userID string) string {
	h := hmac.New(sha256.New, s.masterSecret)
	h.Write([]byte(userID))
	return userID + "." + hex.EncodeToString(h.Sum(nil))
}

// VerifyAPIKey validates an HMAC-signed API key and returns its user ID.
func (s *Service) VerifyAPIKey(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", errors.New("invalid key format")
	}
	userID, provided := parts[0], parts[1]

	h := hmac.New(sha256.New, s.masterSecret)
	h.Write([]byte(userID))
	expected := hex.EncodeToString(h.Sum(nil))

	// Constant-time comparison.
	if !hmac.Equal([]byte(provided), []byte(expected)) {
		return "", errors.New("invalid signature")
	}
	return userID, nil
}

// EnsureAdminExists creates the bootstrap admin account when the table is
// empty.
func EnsureAdminExists(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&database.AdminUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return db.Create(&database.AdminUser{
		Username:     username,
		PasswordHash: hash,
	}).Error
}
