package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/constants"
	"github.com/jsphweid/fretboard/fretboard"
	"github.com/jsphweid/fretboard/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStore() *Store {
	return NewStore(config.DefaultConfig().Fretboard, zap.NewNop())
}

func TestGetOrCreate(t *testing.T) {
	s := newStore()
	assert := assert.New(t)

	id, in, err := s.GetOrCreate("")
	require.NoError(t, err)
	assert.NotEmpty(id)

	sameID, same, err := s.GetOrCreate(id)
	require.NoError(t, err)
	assert.Equal(id, sameID)
	assert.Same(in, same)

	otherID, other, err := s.GetOrCreate("forged")
	require.NoError(t, err)
	assert.NotEqual("forged", otherID)
	assert.NotSame(in, other)
	assert.Equal(2, s.Len())

	_, ok := s.Get("forged")
	assert.False(ok)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := newStore()
	_, a, err := s.GetOrCreate("")
	require.NoError(t, err)
	_, b, err := s.GetOrCreate("")
	require.NoError(t, err)

	require.NoError(t, a.Dispatch(fretboard.EnableNote{Pitch: note.MustParse("A1")}))
	assert.Len(t, a.Active(), 1)
	assert.Empty(t, b.Active())
}

func TestFromRequestSetsCookieOnce(t *testing.T) {
	s := newStore()
	assert := assert.New(t)

	w := httptest.NewRecorder()
	in, err := s.FromRequest(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(constants.SessionCookie, cookies[0].Name)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	again, err := s.FromRequest(w, r)
	require.NoError(t, err)
	assert.Same(in, again)
	assert.Empty(w.Result().Cookies())
}

func TestSweep(t *testing.T) {
	s := newStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	old, _, err := s.GetOrCreate("")
	require.NoError(t, err)
	now = now.Add(time.Hour)
	fresh, _, err := s.GetOrCreate("")
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 1, s.Sweep(time.Hour))

	_, ok := s.Get(old)
	assert.False(t, ok)
	_, ok = s.Get(fresh)
	assert.True(t, ok)
}

func TestRunStopsWithContext(t *testing.T) {
	s := newStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	<-done
}

func TestConcurrentGetOrCreate(t *testing.T) {
	s := newStore()
	id, _, err := s.GetOrCreate("")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, in, err := s.GetOrCreate(id)
			assert.NoError(t, err)
			assert.Equal(t, id, got)
			_ = in.Dispatch(fretboard.Clear{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
