package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okarpov/athanor/internal/cache"
	"github.com/okarpov/athanor/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "athanor-test",
		MaxBodyBytes: 1 << 20,
	}
}

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, BaseDelay: time.Millisecond}
}

func newTestClient(store cache.Cache) *Client {
	return NewClient(testHTTPConfig(), store, NewLimiter(1000, 100))
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "athanor-test" {
			t.Errorf("user agent = %q", ua)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	data, err := newTestClient(cache.Nop{}).Get(context.Background(), "test", srv.URL, fastRetry(2))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("body = %q", data)
	}
}

func TestClientGetCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	client := newTestClient(cache.NewMemoryCache(time.Minute, time.Minute))
	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "test", srv.URL, fastRetry(2)); err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected 1 upstream request, got %d", n)
	}
}

func TestClientNotFound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(cache.Nop{}).Get(context.Background(), "test", srv.URL, fastRetry(3))
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("404 must not be retried, got %d requests", n)
	}
}

func TestClientRetriesServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	data, err := newTestClient(cache.Nop{}).Get(context.Background(), "test", srv.URL, fastRetry(4))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "recovered" {
		t.Errorf("body = %q", data)
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestClientRetryBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(cache.Nop{}).Get(context.Background(), "test", srv.URL, fastRetry(2))
	var sue *model.SourceUnavailableError
	if !errors.As(err, &sue) {
		t.Fatalf("expected SourceUnavailableError, got %v", err)
	}
	if sue.Source != "test" {
		t.Errorf("source = %q", sue.Source)
	}
}

func TestClientRateLimited(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	start := time.Now()
	data, err := newTestClient(cache.Nop{}).Get(context.Background(), "test", srv.URL, fastRetry(3))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("body = %q", data)
	}
	// The retry must honor the server's Retry-After, not the 1ms backoff.
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("retried after %v; Retry-After asked for 1s", elapsed)
	}
}

func TestNextDelay(t *testing.T) {
	rl := &model.RateLimitedError{Source: "test", RetryAfter: 2 * time.Second}
	if d := nextDelay(time.Second, rl); d != 2*time.Second {
		t.Errorf("shorter backoff should yield to Retry-After, got %v", d)
	}
	if d := nextDelay(5*time.Second, rl); d != 5*time.Second {
		t.Errorf("longer backoff should stand, got %v", d)
	}
	if d := nextDelay(time.Second, &serverError{status: 500}); d != time.Second {
		t.Errorf("server errors keep the backoff delay, got %v", d)
	}
}

func TestClientGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"aspirin"}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	if err := newTestClient(cache.Nop{}).GetJSON(context.Background(), "test", srv.URL, fastRetry(2), &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Name != "aspirin" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestClientGetJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	var out map[string]any
	if err := newTestClient(cache.Nop{}).GetJSON(context.Background(), "test", srv.URL, fastRetry(2), &out); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClientContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(cache.Nop{}).Get(ctx, "test", srv.URL, RetryPolicy{Attempts: 5, BaseDelay: time.Second})
	if err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestRetryAfterHeader(t *testing.T) {
	if d := retryAfter("3"); d != 3*time.Second {
		t.Errorf("retryAfter(\"3\") = %v", d)
	}
	if d := retryAfter(""); d != 0 {
		t.Errorf("retryAfter(\"\") = %v", d)
	}
	if d := retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"); d != 0 {
		t.Errorf("date form should fall back to 0, got %v", d)
	}
}
