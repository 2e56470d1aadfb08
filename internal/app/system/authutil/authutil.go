// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordCommon   = errors.New("password is too common")
	ErrInvalidEmail     = errors.New("invalid email address")
)

var commonPasswords = map[string]bool{
	"123456": true, "1234567": true, "12345678": true, "123456789": true,
	"password": true, "qwerty": true, "abc123": true, "iloveyou": true,
	"letmein": true, "football": true, "welcome": true, "monkey": true,
	"dragon": true, "111111": true, "sunshine": true,
}

// ValidatePassword enforces length bounds and rejects well-known passwords.
func ValidatePassword(pw string) error {
	switch {
	case len(pw) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(pw) > MaxPasswordLength:
		return ErrPasswordTooLong
	case commonPasswords[strings.ToLower(pw)]:
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes ValidatePassword for error responses.
func PasswordRules() string {
	return fmt.Sprintf("Passwords must be %d to %d characters and not a common password.", MinPasswordLength, MaxPasswordLength)
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// TempPassword returns a random 12-character password for bulk-created
// accounts.
func TempPassword() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// ValidateEmail returns ErrInvalidEmail unless s looks like an address.
func ValidateEmail(s string) error {
	if !isValidEmail(s) {
		return ErrInvalidEmail
	}
	return nil
}

func isValidEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || strings.Count(s, "@") != 1 {
		return false
	}
	domain := s[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && !strings.HasSuffix(domain, ".")
}
