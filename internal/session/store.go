package session

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"policydash/pkg/contracts/domain"
)

// Session holds the dataset one browser is working on. The table is never
// mutated after it is stored; filtering always derives a new table.
type Session struct {
	ID        string
	Source    string
	Table     *domain.Table
	Report    domain.LoadReport
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasData reports whether a dataset has been uploaded.
func (s *Session) HasData() bool {
	return s != nil && s.Table != nil
}

// Options configures a Store.
type Options struct {
	MaxSessions int
	TTL         time.Duration
	Now         func() time.Time
	// OnRemove is called with the store lock held whenever a session leaves
	// the store through deletion, expiry or eviction.
	OnRemove func(id string)
}

// Store is an in-memory session store with TTL expiry and least recently
// used eviction.
type Store struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[string]*list.Element
	lru     *list.List
	logger  *slog.Logger

	onRemove func(id string)
}

type entry struct {
	session   *Session
	expiresAt time.Time
}

// NewStore creates a session store.
func NewStore(opts Options, logger *slog.Logger) *Store {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 64
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		maxSize: opts.MaxSessions,
		ttl:     opts.TTL,
		now:     opts.Now,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		logger:  logger.With(slog.String("component", "session_store")),

		onRemove: opts.OnRemove,
	}
}

// Create starts an empty session with a fresh ID.
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	s.Put(sess)
	return sess
}

// Get returns a live session and refreshes its expiry.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[id]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	now := s.now()
	if now.After(e.expiresAt) {
		s.removeElement(elem)
		return nil, false
	}
	e.expiresAt = now.Add(s.ttl)
	s.lru.MoveToFront(elem)
	return e.session, true
}

// Put stores sess, replacing any session with the same ID.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{session: sess, expiresAt: s.now().Add(s.ttl)}
	if elem, ok := s.items[sess.ID]; ok {
		elem.Value = e
		s.lru.MoveToFront(elem)
		return
	}
	s.items[sess.ID] = s.lru.PushFront(e)

	if s.lru.Len() > s.maxSize {
		if oldest := s.lru.Back(); oldest != nil {
			evicted := oldest.Value.(*entry).session.ID
			s.removeElement(oldest)
			s.logger.Info("session evicted", slog.String("session_id", evicted))
		}
	}
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[id]
	if ok {
		s.removeElement(elem)
	}
	return ok
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []*list.Element
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry).expiresAt) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		s.removeElement(elem)
	}
	return len(expired)
}

// Size returns the number of stored sessions, expired or not.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) removeElement(elem *list.Element) {
	id := elem.Value.(*entry).session.ID
	delete(s.items, id)
	s.lru.Remove(elem)
	if s.onRemove != nil {
		s.onRemove(id)
	}
}
