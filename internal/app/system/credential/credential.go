// internal/app/system/credential/credential.go

// Package credential verifies login credentials. Every staff account shares
// its school's password, so verification resolves the user by email first
// and then checks the submitted password against the school's hash.
package credential

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/dalemusser/carline/internal/domain/models"
)

var (
	// ErrUnknownEmail means no account exists for the submitted email.
	ErrUnknownEmail = errors.New("no account found for this email")
	// ErrSchoolMissing means the account's school record no longer exists.
	ErrSchoolMissing = errors.New("school record not found for this account")
	// ErrWrongPassword means the submitted password did not match.
	ErrWrongPassword = errors.New("incorrect password")
)

// Hash produces a bcrypt hash of a plaintext school password.
func Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Check compares a stored hash against a plaintext password.
// Returns ErrWrongPassword on mismatch.
func Check(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// UserDirectory resolves staff accounts by email.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SchoolLookup resolves school records by ID.
type SchoolLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.School, error)
}

// Verifier checks an email/password pair against the directory and the
// owning school's password hash.
type Verifier struct {
	Users   UserDirectory
	Schools SchoolLookup
}

// Verify resolves the user and confirms the password. On success it returns
// both the user and their school so the caller can build a session without
// extra lookups.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*models.User, *models.School, error) {
	u, err := v.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrUnknownEmail
		}
		return nil, nil, err
	}

	sch, err := v.Schools.GetByID(ctx, u.SchoolID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrSchoolMissing
		}
		return nil, nil, err
	}

	if err := Check(sch.PasswordHash, password); err != nil {
		return nil, nil, err
	}
	return u, sch, nil
}
