package devserver

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/assessly/internal/api"
)

var (
	errEmailTaken         = errors.New("email already registered")
	errInvalidCredentials = errors.New("invalid credentials")
	errNotVerified        = errors.New("email not verified")
	errBadVerification    = errors.New("invalid verification token")
	errUserNotFound       = errors.New("user not found")
)

type user struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	Verified     bool
	VerifyToken  string
}

func (u *user) toAPI() api.User {
	return api.User{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Verified: u.Verified}
}

func (u *user) clone() *user {
	cp := *u
	return &cp
}

// userStore keeps accounts in memory, keyed by lowercased email.
type userStore struct {
	mu      sync.RWMutex
	byEmail map[string]*user
	byID    map[string]*user
	cost    int
}

func newUserStore(cost int) *userStore {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &userStore{
		byEmail: make(map[string]*user),
		byID:    make(map[string]*user),
		cost:    cost,
	}
}

// Register creates an unverified student account and returns it with the
// verification token set.
func (s *userStore) Register(email, password, name string) (*user, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[key]; ok {
		return nil, errEmailTaken
	}
	u := &user{
		ID:           uuid.New().String(),
		Email:        key,
		Name:         strings.TrimSpace(name),
		Role:         "student",
		PasswordHash: string(hash),
		VerifyToken:  token,
	}
	s.byEmail[key] = u
	s.byID[u.ID] = u
	return u.clone(), nil
}

// Verify marks the account verified when token matches.
func (s *userStore) Verify(email, token string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, errBadVerification
	}
	if u.Verified {
		return u.clone(), nil
	}
	if u.VerifyToken == "" || u.VerifyToken != token {
		return nil, errBadVerification
	}
	u.Verified = true
	u.VerifyToken = ""
	return u.clone(), nil
}

// Authenticate checks the password and verification state.
func (s *userStore) Authenticate(email, password string) (*user, error) {
	s.mu.RLock()
	u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if ok {
		u = u.clone()
	}
	s.mu.RUnlock()
	if !ok {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !u.Verified {
		return nil, errNotVerified
	}
	return u, nil
}

// Get returns the account with the given id.
func (s *userStore) Get(id string) (*user, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, errUserNotFound
	}
	return u.clone(), nil
}

func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
