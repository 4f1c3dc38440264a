package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"biro-server/internal/clock"
	"biro-server/internal/model"
	"biro-server/internal/repository"
	"biro-server/pkg/hashing"

	"go.uber.org/zap"
)

const (
	DefaultSessionTTL    = 120 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

type SessionManager interface {
	IssueOrRenew(ctx context.Context, user *model.User) ([]byte, error)
	Verify(ctx context.Context, token []byte) (bool, error)
	Lookup(ctx context.Context, token []byte) (*model.User, error)
	UsernameByToken(ctx context.Context, token []byte) (string, error)
	UserIDByToken(ctx context.Context, token []byte) (int, error)
	Sweep(ctx context.Context) (int64, error)
	Start(ctx context.Context)
	Stop()
}

type sessionManager struct {
	sessions repository.SessionRepository
	clock    clock.Clock
	ttl      time.Duration
	interval time.Duration
	log      *zap.SugaredLogger

	// issueMu serializes IssueOrRenew so concurrent logins of one user see
	// the same row. The sweep takes it only around its single delete.
	issueMu sync.Mutex

	startOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewSessionManager(sessions repository.SessionRepository, clk clock.Clock, ttl, interval time.Duration, log *zap.SugaredLogger) SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &sessionManager{
		sessions: sessions,
		clock:    clk,
		ttl:      ttl,
		interval: interval,
		log:      log,
	}
}

// IssueOrRenew returns the user's existing token with a fresh expiration, or
// mints and stores a new one when the user has no session.
func (s *sessionManager) IssueOrRenew(ctx context.Context, user *model.User) ([]byte, error) {
	s.issueMu.Lock()
	defer s.issueMu.Unlock()

	now := s.clock.Now()
	expiration := now.Add(s.ttl)

	// 1. Renew in place when a row exists
	if token, ok, err := s.renew(ctx, user.ID, expiration); err != nil || ok {
		return token, err
	}

	// 2. Mint a new token
	token, err := hashing.TimestampToken(now)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	err = s.sessions.Create(ctx, &model.Session{
		Token:      token,
		UserID:     user.ID,
		Expiration: expiration,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Another process inserted the row first; adopt its token.
		if existing, ok, rerr := s.renew(ctx, user.ID, expiration); rerr != nil || ok {
			return existing, rerr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Debugw("session issued", "user_id", user.ID, "expiration", expiration)
	return token, nil
}

func (s *sessionManager) renew(ctx context.Context, userID int, expiration time.Time) ([]byte, bool, error) {
	existing, err := s.sessions.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}

	err = s.sessions.UpdateExpiration(ctx, existing.Token, expiration)
	if errors.Is(err, repository.ErrNotFound) {
		// swept between the read and the update
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("renew session: %w", err)
	}
	return existing.Token, true, nil
}

// Verify extends a known token. A session past its expiration that the sweep
// has not yet removed still verifies and is extended.
func (s *sessionManager) Verify(ctx context.Context, token []byte) (bool, error) {
	if len(token) == 0 {
		return false, nil
	}
	err := s.sessions.UpdateExpiration(ctx, token, s.clock.Now().Add(s.ttl))
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify session: %w", err)
	}
	return true, nil
}

// Lookup resolves the session owner without touching the expiration.
func (s *sessionManager) Lookup(ctx context.Context, token []byte) (*model.User, error) {
	if len(token) == 0 {
		return nil, ErrUnauthorized
	}
	session, err := s.sessions.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if session.User == nil {
		return nil, ErrUnauthorized
	}
	return session.User, nil
}

func (s *sessionManager) UsernameByToken(ctx context.Context, token []byte) (string, error) {
	user, err := s.Lookup(ctx, token)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (s *sessionManager) UserIDByToken(ctx context.Context, token []byte) (int, error) {
	user, err := s.Lookup(ctx, token)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Sweep deletes every session whose expiration has passed.
func (s *sessionManager) Sweep(ctx context.Context) (int64, error) {
	now := s.clock.Now()

	s.issueMu.Lock()
	deleted, err := s.sessions.DeleteExpired(ctx, now)
	s.issueMu.Unlock()

	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if deleted > 0 {
		s.log.Infow("expired sessions swept", "count", deleted)
	}
	return deleted, nil
}

// Start runs the sweep every interval until ctx is cancelled or Stop is
// called. Calling Start more than once has no effect.
func (s *sessionManager) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		s.wg.Add(1)
		go s.sweepLoop(ctx)
	})
}

func (s *sessionManager) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Warnw("session sweep failed", "error", err)
			}
		}
	}
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *sessionManager) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
