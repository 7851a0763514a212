package memory

import (
	"context"
	"strings"
	"time"

	"notes-app/backend/internal/model"
	"notes-app/backend/internal/store"
)

func (s *Store) CreateAccount(_ context.Context, a model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := store.NormalizeEmail(a.Email)
	if email == "" {
		return model.Account{}, store.ErrEmailRequired
	}
	if _, exists := s.byEmail[email]; exists {
		return model.Account{}, store.ErrConflict
	}

	if strings.TrimSpace(a.ID) == "" {
		a.ID = newID()
	}
	if _, exists := s.accounts[a.ID]; exists {
		return model.Account{}, store.ErrConflict
	}

	now := s.now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	a.Email = email

	s.accounts[a.ID] = a.Clone()
	s.byEmail[email] = a.ID
	return a.Clone(), nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[store.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	a := s.accounts[id].Clone()
	return &a, nil
}

func (s *Store) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a = a.Clone()
	return &a, nil
}

func (s *Store) UpdateAccount(_ context.Context, a model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[a.ID]
	if !ok {
		return model.Account{}, store.ErrNotFound
	}

	email := store.NormalizeEmail(a.Email)
	if email != existing.Email {
		if _, taken := s.byEmail[email]; taken {
			return model.Account{}, store.ErrConflict
		}
		delete(s.byEmail, existing.Email)
		s.byEmail[email] = a.ID
	}

	a.Email = email
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now().UTC()
	s.accounts[a.ID] = a.Clone()
	return a.Clone(), nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	delete(s.accounts, id)
	delete(s.byEmail, a.Email)
	return nil
}

func (s *Store) DeleteUnverifiedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, a := range s.accounts {
		if a.Verified || !a.CreatedAt.Before(cutoff) {
			continue
		}
		delete(s.accounts, id)
		delete(s.byEmail, a.Email)
		removed++
	}
	return removed, nil
}
