package memstore

import "context"

// AuthHash returns the password hash, or "".
func (s *Store) AuthHash(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authHash, nil
}

// InitAuth sets the password hash and token unless a password exists.
func (s *Store) InitAuth(_ context.Context, hash, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authHash != "" {
		return false, nil
	}
	s.authHash, s.authToken = hash, token
	return true, nil
}

// SetAuthToken replaces the current token.
func (s *Store) SetAuthToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authToken = token
	return nil
}

// AuthToken returns the current token, or "".
func (s *Store) AuthToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authToken, nil
}
