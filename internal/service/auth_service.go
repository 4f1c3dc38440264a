package service

import (
	"context"
	"fmt"
	"time"

	"biro-server/internal/clock"
	"biro-server/internal/model"
	"biro-server/pkg/jwt"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) ([]byte, error)
	ValidateToken(ctx context.Context, token []byte) (bool, error)
	Me(ctx context.Context, token []byte) (*model.UserResponse, error)
	IssueWSTicket(ctx context.Context, token []byte) (*WSTicket, error)
	ValidateWSTicket(ticket string) (*jwt.Claims, error)
}

type WSTicket struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

type authService struct {
	credentials CredentialStore
	sessions    SessionManager
	tickets     *jwt.Signer
	clock       clock.Clock
}

func NewAuthService(credentials CredentialStore, sessions SessionManager, tickets *jwt.Signer, clk clock.Clock) AuthService {
	return &authService{
		credentials: credentials,
		sessions:    sessions,
		tickets:     tickets,
		clock:       clk,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) ([]byte, error) {
	// 1. Check the password
	user, err := s.credentials.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	// 2. One session per user: reuse the token when one exists
	return s.sessions.IssueOrRenew(ctx, user)
}

func (s *authService) ValidateToken(ctx context.Context, token []byte) (bool, error) {
	return s.sessions.Verify(ctx, token)
}

func (s *authService) Me(ctx context.Context, token []byte) (*model.UserResponse, error) {
	user, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// IssueWSTicket mints a short-lived ticket the browser passes on the
// websocket upgrade, where no Authorization header can be set.
func (s *authService) IssueWSTicket(ctx context.Context, token []byte) (*WSTicket, error) {
	user, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	ticket, expiresAt, err := s.tickets.GenerateTicket(user.ID, user.Username, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &WSTicket{Ticket: ticket, ExpiresAt: expiresAt}, nil
}

func (s *authService) ValidateWSTicket(ticket string) (*jwt.Claims, error) {
	claims, err := s.tickets.ValidateTicket(ticket, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}
