package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rider-booking/internal/events"
	"rider-booking/pkg/jwt"
	"rider-booking/pkg/validation"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidName        = errors.New("name must be 2-200 characters")
	ErrNotFound           = errors.New("user not found")
)

// Service keeps rider accounts in memory and issues their tokens.
type Service struct {
	signer *jwt.Signer
	cost   int

	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]*User
}

// NewService creates a user service that signs with signer.
func NewService(signer *jwt.Signer) *Service {
	return &Service{
		signer:  signer,
		cost:    bcrypt.DefaultCost,
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

// Register creates a rider account and returns a JWT.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if !validation.ValidateName(req.Name) {
		return nil, ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, errors.New("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	s.mu.Lock()
	if _, ok := s.byEmail[email]; ok {
		s.mu.Unlock()
		return nil, ErrEmailTaken
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u
	s.mu.Unlock()

	return s.issue(u)
}

// Login authenticates a rider and returns a JWT.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	s.mu.RLock()
	u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// DevToken creates a throwaway rider with no credentials.
func (s *Service) DevToken(ctx context.Context, name string) (*AuthResponse, error) {
	if !validation.ValidateName(name) {
		return nil, ErrInvalidName
	}
	u := &User{ID: uuid.New().String(), Name: strings.TrimSpace(name), CreatedAt: time.Now()}

	s.mu.Lock()
	s.byID[u.ID] = u
	s.mu.Unlock()

	return s.issue(u)
}

// GetByID fetches a single user.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Service) issue(u *User) (*AuthResponse, error) {
	token, err := s.signer.Generate(u.ID, u.Name, events.RoleRider)
	if err != nil {
		return nil, err
	}
	cp := *u
	return &AuthResponse{Token: token, User: &cp}, nil
}
