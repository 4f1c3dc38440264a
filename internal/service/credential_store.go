package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"biro-server/internal/model"
	"biro-server/internal/repository"
	"biro-server/pkg/hashing"
	"biro-server/pkg/validator"

	"go.uber.org/zap"
)

var (
	hasLowercase = regexp.MustCompile(`[a-z]`)
	hasUppercase = regexp.MustCompile(`[A-Z]`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
	hasSpecial   = regexp.MustCompile(`[^a-zA-Z0-9]`)
	wordOnly     = regexp.MustCompile(`^\w*$`)
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 12
	maxPasswordLen = 64

	maxUserIDAttempts = 3
)

type CredentialStore interface {
	AddUser(ctx context.Context, username, password string) (*model.User, error)
	VerifyCredentials(ctx context.Context, username, password string) (*model.User, error)
}

type credentialStore struct {
	userRepo repository.UserRepository
	log      *zap.SugaredLogger
}

func NewCredentialStore(userRepo repository.UserRepository, log *zap.SugaredLogger) CredentialStore {
	return &credentialStore{userRepo: userRepo, log: log}
}

// CheckUsername returns a ValidationError describing the first rule the
// username breaks.
func CheckUsername(username string) error {
	if validator.IsUsername(username) {
		return nil
	}
	n := utf8.RuneCountInString(username)
	switch {
	case !wordOnly.MatchString(username):
		return invalid("username", "Username can only contain letters, numbers, and underscores")
	case n < minUsernameLen:
		return invalid("username", "Username must be at least 3 characters")
	default:
		return invalid("username", "Username must be at most 32 characters")
	}
}

// CheckPassword returns a ValidationError describing the first rule the
// password breaks.
func CheckPassword(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < minPasswordLen:
		return invalid("password", "Password must be at least 12 characters")
	case n > maxPasswordLen:
		return invalid("password", "Password must be at most 64 characters")
	case !hasLowercase.MatchString(password):
		return invalid("password", "Password must contain at least one lowercase letter")
	case !hasUppercase.MatchString(password):
		return invalid("password", "Password must contain at least one uppercase letter")
	case !hasDigit.MatchString(password):
		return invalid("password", "Password must contain at least one number")
	case !hasSpecial.MatchString(password):
		return invalid("password", "Password must contain at least one special character")
	}
	return nil
}

func (s *credentialStore) AddUser(ctx context.Context, username, password string) (*model.User, error) {
	// 1. Validate before any write
	if err := CheckUsername(username); err != nil {
		return nil, err
	}
	if err := CheckPassword(password); err != nil {
		return nil, err
	}

	// 2. Hash with a fresh salt
	salt, err := hashing.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hashing.HashPassword(password, salt),
		Salt:         salt,
	}

	// 3. Next id is max + 1, or 1 for an empty table. A concurrent AddUser
	// may take the same id first; pick a fresh one and try again.
	for attempt := 1; ; attempt++ {
		maxID, err := s.userRepo.MaxID(ctx)
		if err != nil {
			return nil, fmt.Errorf("next user id: %w", err)
		}
		user.ID = maxID + 1

		err = s.userRepo.Create(ctx, user)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		if _, lookupErr := s.userRepo.FindByUsername(ctx, username); lookupErr == nil {
			return nil, fmt.Errorf("%w: username %q already exists", ErrConflict, username)
		} else if !errors.Is(lookupErr, repository.ErrNotFound) {
			return nil, fmt.Errorf("check username: %w", lookupErr)
		}
		if attempt == maxUserIDAttempts {
			return nil, fmt.Errorf("%w: no free user id after %d attempts", ErrConflict, attempt)
		}
		s.log.Warnw("user id taken concurrently, retrying", "user_id", user.ID, "attempt", attempt)
	}

	s.log.Infow("user added", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// VerifyCredentials returns ErrInvalidCredentials for an unknown user or a
// wrong password alike.
func (s *credentialStore) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !hashing.Equal(hashing.HashPassword(password, user.Salt), user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
