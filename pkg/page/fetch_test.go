package page

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(FetchOptions{})
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if !strings.HasPrefix(gotLang, "en-US") {
		t.Errorf("Accept-Language = %q", gotLang)
	}
	if string(page.Body) != "<html><body>hello</body></html>" {
		t.Errorf("unexpected body %q", page.Body)
	}
	if page.URL.String() != srv.URL {
		t.Errorf("URL = %s, want %s", page.URL, srv.URL)
	}
}

func TestFetchRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(FetchOptions{}).Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestFetchEnforcesSizeLimit(t *testing.T) {
	body := strings.Repeat("a", 64)

	t.Run("content length", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		defer srv.Close()

		_, err := NewFetcher(FetchOptions{MaxBodyBytes: 32}).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("expected ErrTooLarge, got %v", err)
		}
	})

	t.Run("chunked", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for i := 0; i < 4; i++ {
				w.Write([]byte(body[:16]))
				w.(http.Flusher).Flush()
			}
		}))
		defer srv.Close()

		_, err := NewFetcher(FetchOptions{MaxBodyBytes: 32}).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("expected ErrTooLarge, got %v", err)
		}
	})

	t.Run("exactly at limit", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		defer srv.Close()

		if _, err := NewFetcher(FetchOptions{MaxBodyBytes: 64}).Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("body at the limit should pass: %v", err)
		}
	})
}

func TestFetchDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer srv.Close()

	page, err := NewFetcher(FetchOptions{}).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(page.Body) != "<p>café</p>" {
		t.Errorf("body not decoded to UTF-8: %q", page.Body)
	}
}

func TestFetchRejectsScheme(t *testing.T) {
	_, err := NewFetcher(FetchOptions{}).Fetch(context.Background(), "file:///etc/passwd")
	if err == nil {
		t.Fatal("expected error for file scheme")
	}
}
