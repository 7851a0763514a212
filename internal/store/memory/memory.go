package memory

import (
	"sync"
	"time"

	"notes-app/backend/internal/model"
)

// Store keeps accounts in process memory. It is the default backend when no
// database is configured and the fixture used by service tests.
type Store struct {
	mu sync.Mutex

	accounts map[string]model.Account
	// email -> account id
	byEmail map[string]string

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]model.Account),
		byEmail:  make(map[string]string),
		now:      time.Now,
	}
}

// Len returns the number of stored accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}
