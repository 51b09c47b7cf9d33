// Package auth restricts who may talk to the Telegram bot.
package auth

import "sync"

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Service is an allowlist. An empty allowlist admits everyone.
type Service struct {
	mu      sync.RWMutex
	allowed map[int64]User
}

func New(initial []int64, users []User) *Service {
	s := &Service{allowed: make(map[int64]User)}
	for _, u := range users {
		s.allowed[u.ID] = u
	}
	for _, id := range initial {
		if _, ok := s.allowed[id]; !ok {
			s.allowed[id] = User{ID: id}
		}
	}
	return s
}

func (s *Service) IsAllowed(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[userID]
	return ok
}

func (s *Service) Restricted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.allowed) > 0
}
