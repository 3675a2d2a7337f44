package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/logger"
)

type fakeCreds struct {
	token     string
	refreshed int32
	renewTo   string // token installed by a successful refresh
	refreshOK bool
}

func (f *fakeCreds) Get() (*domain.Credential, error) {
	if f.token == "" {
		return nil, nil
	}
	return &domain.Credential{AccessToken: f.token}, nil
}

func (f *fakeCreds) Refresh(ctx context.Context) bool {
	atomic.AddInt32(&f.refreshed, 1)
	if f.refreshOK {
		f.token = f.renewTo
	}
	return f.refreshOK
}

func testLogger() logger.Logger { return logger.New("error", false) }

func newTestClient(t *testing.T, handler http.HandlerFunc, creds *fakeCreds) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, testLogger())
	if creds != nil {
		c.SetCredentials(creds)
	}
	return c, srv
}

func TestGetPostSendsBearer(t *testing.T) {
	creds := &fakeCreds{token: "tok-1"}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/posts/p1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Post{ID: "p1", Title: "Chapter 1", Status: StatusLive})
	}, creds)

	post, err := c.GetPost(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if post.ID != "p1" || post.Status != StatusLive {
		t.Errorf("GetPost() = %+v", post)
	}
}

func TestUnauthorizedRefreshesAndRetriesOnce(t *testing.T) {
	var calls int32
	creds := &fakeCreds{token: "stale", renewTo: "fresh", refreshOK: true}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer fresh" {
			t.Errorf("retry Authorization = %q, want the refreshed token", got)
		}
		_ = json.NewEncoder(w).Encode(Post{ID: "p1"})
	}, creds)

	if _, err := c.GetPost(context.Background(), "p1"); err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("server calls = %d, want 2 (original + one retry)", calls)
	}
	if atomic.LoadInt32(&creds.refreshed) != 1 {
		t.Errorf("refreshes = %d, want 1", creds.refreshed)
	}
}

func TestUnauthorizedWithFailedRefresh(t *testing.T) {
	creds := &fakeCreds{token: "stale", refreshOK: false}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, creds)

	_, err := c.GetPost(context.Background(), "p1")
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Errorf("GetPost() = %v, want ErrAuthExpired", err)
	}
}

func TestSecondRejectionIsAuthExpired(t *testing.T) {
	creds := &fakeCreds{token: "stale", renewTo: "still-bad", refreshOK: true}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, creds)

	_, err := c.GetPost(context.Background(), "p1")
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Errorf("GetPost() = %v, want ErrAuthExpired after retry", err)
	}
	if atomic.LoadInt32(&creds.refreshed) != 1 {
		t.Errorf("refreshes = %d, want exactly 1 (no retry loops)", creds.refreshed)
	}
}

func TestServerErrorIsRemoteUnavailable(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, nil)

	_, err := c.ListPosts(context.Background())
	if !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("ListPosts() = %v, want ErrRemoteUnavailable", err)
	}
}

func TestNetworkErrorIsRemoteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore
	c := NewClient(srv.URL, testLogger())

	_, err := c.ListPosts(context.Background())
	if !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("ListPosts() = %v, want ErrRemoteUnavailable", err)
	}
}

func TestClientErrorSurfacesServerMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "post already published"})
	}, nil)

	err := c.PublishPost(context.Background(), "p1")
	if err == nil {
		t.Fatal("PublishPost() succeeded on a 409")
	}
	if errors.Is(err, domain.ErrAuthExpired) || errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("4xx mapped to the wrong sentinel: %v", err)
	}
	if !strings.Contains(err.Error(), "post already published") {
		t.Errorf("error message lost: %v", err)
	}
}

func TestCreatePostValidation(t *testing.T) {
	var called int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&called, 1)
	}, nil)

	tests := []struct {
		name  string
		post  Post
		field string
	}{
		{name: "empty title", post: Post{Content: "body"}, field: "title"},
		{name: "whitespace title", post: Post{Title: "   ", Content: "body"}, field: "title"},
		{name: "empty content", post: Post{Title: "t"}, field: "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreatePost(context.Background(), &tt.post)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("CreatePost() = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}

	if atomic.LoadInt32(&called) != 0 {
		t.Errorf("validation failures reached the network: %d calls", called)
	}
}

func TestRefreshTokenExchange(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["refreshToken"] != "refresh-1" {
			t.Errorf("refreshToken = %q", req["refreshToken"])
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"accessToken": "new-access",
			"expiresAt":   int64(1_900_000_000_000),
		})
	}, nil)

	cred, err := c.RefreshToken(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if cred.AccessToken != "new-access" || cred.ExpiresAt != 1_900_000_000_000 {
		t.Errorf("RefreshToken() = %+v", cred)
	}
}

func TestRefreshTokenRejection(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)

	_, err := c.RefreshToken(context.Background(), "revoked")
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Errorf("RefreshToken() = %v, want ErrAuthExpired", err)
	}
}

func TestPushBackup(t *testing.T) {
	creds := &fakeCreds{token: "tok"}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/backup/user-1" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var snap domain.BackupSnapshot
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			t.Errorf("failed to decode snapshot: %v", err)
		}
		if len(snap.MangaBookmarks) != 1 {
			t.Errorf("mangaBookmarks = %d entries, want 1", len(snap.MangaBookmarks))
		}
		w.WriteHeader(http.StatusNoContent)
	}, creds)

	snap := domain.BackupSnapshot{
		MangaBookmarks: []domain.ReadingBookmark{{ID: "c1", CurrentPage: 3, TotalPages: 9}},
	}
	if err := c.PushBackup(context.Background(), "user-1", snap); err != nil {
		t.Errorf("PushBackup() error = %v", err)
	}
}
