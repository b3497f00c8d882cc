package isochrone

import "sync"

// Sessions remembers the newest computation started by each client so
// results of older ones can be discarded.
type Sessions struct {
	mu     sync.Mutex
	latest map[string]string
}

func NewSessions() *Sessions {
	return &Sessions{latest: make(map[string]string)}
}

// Begin records computationID as the newest for client.
func (s *Sessions) Begin(client, computationID string) {
	if client == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[client] = computationID
}

// Finish reports whether computationID is still the newest for client and
// forgets it when it is. Anonymous computations are always current.
func (s *Sessions) Finish(client, computationID string) bool {
	if client == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[client] != computationID {
		return false
	}
	delete(s.latest, client)
	return true
}

// Active is the number of clients with a computation in flight.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latest)
}
