package cart

import "sync"

// Store holds one live cart per terminal. Within a terminal a single operator
// mutates the cart at a time; the mutex only guards the map itself so that
// independent terminals can work concurrently.
type Store struct {
	mu    sync.Mutex
	carts map[int]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[int]*Cart)}
}

// Get returns the terminal's cart, creating an empty one on first use.
func (s *Store) Get(terminal int) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[terminal]
	if !ok {
		c = New()
		s.carts[terminal] = c
	}
	return c
}

// Replace swaps in a rebuilt cart (resume path).
func (s *Store) Replace(terminal int, c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[terminal] = c
}

// Clear resets the terminal's cart to empty.
func (s *Store) Clear(terminal int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, terminal)
}
