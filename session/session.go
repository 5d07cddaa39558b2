package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/constants"
	"github.com/jsphweid/fretboard/fretboard"
	"go.uber.org/zap"
)

type entry struct {
	instance *fretboard.Instance
	lastSeen time.Time
}

// Store keeps one fretboard per browser, keyed by a random cookie id.
type Store struct {
	mu       sync.Mutex
	cfg      config.Fretboard
	logger   *zap.Logger
	sessions map[string]*entry
	now      func() time.Time
}

func NewStore(cfg config.Fretboard, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

func (s *Store) Get(id string) (*fretboard.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.instance, true
}

// GetOrCreate returns the session for id, starting a fresh one under a new
// id when id is unknown. The returned id is the one to hand back to the client.
func (s *Store) GetOrCreate(id string) (string, *fretboard.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		e.lastSeen = s.now()
		return id, e.instance, nil
	}

	in, err := fretboard.New(s.cfg, s.logger)
	if err != nil {
		return "", nil, err
	}
	newID := uuid.NewString()
	s.sessions[newID] = &entry{instance: in, lastSeen: s.now()}
	s.logger.Debug("session created", zap.String("session", newID), zap.Int("sessions", len(s.sessions)))
	return newID, in, nil
}

// FromRequest resolves the session cookie, setting a new one when needed.
func (s *Store) FromRequest(w http.ResponseWriter, r *http.Request) (*fretboard.Instance, error) {
	var id string
	if c, err := r.Cookie(constants.SessionCookie); err == nil {
		id = c.Value
	}
	newID, in, err := s.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     constants.SessionCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return in, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and reports how many.
func (s *Store) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	dropped := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				s.logger.Info("dropped idle sessions", zap.Int("count", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}
