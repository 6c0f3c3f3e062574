package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	calls int32
	res   Result
	err   error
}

func (s *stubProvider) Translate(ctx context.Context, word string) (Result, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.res, s.err
}

func TestClientLookupSuccess(t *testing.T) {
	p := &stubProvider{res: Result{Translation: "苹果", PartOfSpeech: "noun"}}
	c := NewClient("test", p, BreakerOptions{MaxFailures: 3, OpenTimeout: time.Minute})

	assert.Equal(t, Result{"苹果", "noun"}, c.Lookup(context.Background(), "apple"))
}

func TestClientLookupPlaceholders(t *testing.T) {
	missing := NewClient("test", &stubProvider{}, BreakerOptions{})
	assert.Equal(t, Result{Translation: MissingText}, missing.Lookup(context.Background(), "apple"))

	failing := NewClient("test", &stubProvider{err: errors.New("dial tcp: refused")}, BreakerOptions{})
	assert.Equal(t, Result{Translation: NetworkErrorText}, failing.Lookup(context.Background(), "apple"))
}

func TestClientBreakerOpens(t *testing.T) {
	p := &stubProvider{err: errors.New("unreachable")}
	c := NewClient("test", p, BreakerOptions{MaxFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 5; i++ {
		res := c.Lookup(context.Background(), "apple")
		assert.Equal(t, NetworkErrorText, res.Translation)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&p.calls), "open breaker must short-circuit calls")
	assert.Equal(t, gobreaker.StateOpen, c.State())
}

func TestClientNetworkFailureEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens any more

	c := NewClient("google", NewGoogle(url, time.Second), BreakerOptions{MaxFailures: 5})
	res := c.Lookup(context.Background(), "apple")
	assert.Equal(t, Result{Translation: NetworkErrorText}, res)
}

func TestNoopProvider(t *testing.T) {
	c := NewClient("noop", Noop{}, BreakerOptions{})
	assert.Equal(t, MissingText, c.Lookup(context.Background(), "apple").Translation)
}
