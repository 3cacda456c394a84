package integrations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lockgraph/lockgraph/pkg/cache"
	"github.com/lockgraph/lockgraph/pkg/observability"
)

func TestClientGetJSON(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/hello" {
			t.Errorf("path = %s, want /hello", r.URL.Path)
		}
		w.Write([]byte(`{"message":"hello"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	var resp response
	if err := client.GetJSON(context.Background(), "/hello", &resp); err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("GetJSON() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientHeaders(t *testing.T) {
	var accept, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		auth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(server.URL, map[string]string{"Accept": "application/vnd.github.v3+json"})
	client.SetAuthToken("secret")

	body, err := client.Get(context.Background(), "/")
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
	if accept != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", accept)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestClientAbsoluteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	client := NewClient("https://api.example.invalid", nil)
	body, err := client.Get(context.Background(), server.URL+"/raw/file")
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "/raw/file" {
		t.Errorf("body = %q", body)
	}
}

func TestClientStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrNetwork},
		{http.StatusForbidden, ErrNetwork},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := NewClient(server.URL, nil).Get(context.Background(), "/")
		server.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

type countingHTTPHooks struct {
	observability.NoopHTTPHooks
	requests, responses int
	host, path          string
}

func (h *countingHTTPHooks) OnRequest(_ context.Context, _, host, path string) {
	h.requests++
	h.host, h.path = host, path
}

func (h *countingHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {
	h.responses++
}

func TestClientHooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	hooks := &countingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	if _, err := NewClient(server.URL, nil).Get(context.Background(), "/repos/a/b"); err != nil {
		t.Fatal(err)
	}
	if hooks.requests != 1 || hooks.responses != 1 {
		t.Errorf("requests = %d, responses = %d", hooks.requests, hooks.responses)
	}
	if hooks.path != "/repos/a/b" || hooks.host == "" {
		t.Errorf("host = %q path = %q", hooks.host, hooks.path)
	}
}

func TestClientCached(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	client := NewClient("", nil)
	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	for i := 0; i < 2; i++ {
		data, err := client.Cached(ctx, store, "k", time.Hour, false, fetch)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "payload" {
			t.Errorf("data = %q", data)
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}

	if _, err := client.Cached(ctx, store, "k", time.Hour, true, fetch); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("refresh should bypass cache; calls = %d", calls)
	}
}

func TestClientCachedError(t *testing.T) {
	ctx := context.Background()
	store, _ := cache.NewFileCache(t.TempDir())
	client := NewClient("", nil)

	boom := errors.New("boom")
	if _, err := client.Cached(ctx, store, "k", time.Hour, false, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if _, hit, _ := store.Get(ctx, "k"); hit {
		t.Error("failed fetch must not be cached")
	}
}
