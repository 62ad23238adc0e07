// Package accounts is the durable-account collaborator of the signaling core:
// registration, credential checks and the per-account online flag. The store
// is in-memory; the interface is what the rest of the system depends on.
package accounts

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"webrtc-signaling-server/internal/domain"
)

var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = errors.New("password too short")
)

type record struct {
	user *domain.User
	hash []byte
}

type Service struct {
	mu     sync.RWMutex
	byName map[string]*record
}

func NewService() *Service {
	return &Service{byName: make(map[string]*record)}
}

func (s *Service) Exists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byName[username]
	return ok
}

func (s *Service) Register(username, password, fullName string) (*domain.User, error) {
	if len(password) < domain.MinPasswordLen {
		return nil, ErrPasswordTooShort
	}
	user, err := domain.NewUser(username, fullName)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[username]; ok {
		return nil, ErrDuplicateUsername
	}
	s.byName[username] = &record{user: user, hash: hash}
	log.Info().Str("module", "accounts").Str("username", username).Msg("registered user")
	out := *user
	return &out, nil
}

func (s *Service) Authenticate(username, password string) (*domain.User, error) {
	s.mu.RLock()
	rec, ok := s.byName[username]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	out := *rec.user
	return &out, nil
}

func (s *Service) SetOnline(username string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byName[username]; ok {
		rec.user.Online = online
	}
}

func (s *Service) SetAllOffline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.byName {
		rec.user.Online = false
	}
}

// ListOnline returns copies of every account currently flagged online.
func (s *Service) ListOnline() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.byName))
	for _, rec := range s.byName {
		if rec.user.Online {
			out = append(out, *rec.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// OnlineUsernames is the shape the relay consumes for presence snapshots.
func (s *Service) OnlineUsernames() []string {
	users := s.ListOnline()
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Username
	}
	return out
}
