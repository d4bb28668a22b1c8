package listenbrainz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"playsync/internal/listenbrainz"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := listenbrainz.New("  "); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestGetListensSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/user/some%20one/listens" && r.URL.EscapedPath() != "/1/user/some%20one/listens" {
			t.Errorf("unexpected path %q", r.URL.EscapedPath())
		}
		if got := r.URL.Query().Get("count"); got != "50" {
			t.Errorf("count = %q", got)
		}
		if got := r.URL.Query().Get("max_ts"); got != "1700000000" {
			t.Errorf("max_ts = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payload":{"count":2,"user_id":"some one","listens":[
			{"listened_at":1699999999,"track_metadata":{"artist_name":"O'Brien","track_name":"Song","release_name":"LP"}},
			{"listened_at":1699990000,"track_metadata":{"artist_name":"Björk","track_name":"Jóga"}}
		]}}`))
	}))
	t.Cleanup(server.Close)

	client, err := listenbrainz.New(server.URL+"/", listenbrainz.WithToken("secret"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	listens, err := client.GetListens(context.Background(), "some one", 1700000000, 50)
	if err != nil {
		t.Fatalf("GetListens returned error: %v", err)
	}
	if len(listens) != 2 {
		t.Fatalf("listens = %d", len(listens))
	}
	if listens[0].ArtistName != "O'Brien" || listens[0].TrackName != "Song" || listens[0].ListenedAt != 1699999999 {
		t.Fatalf("unexpected first listen %+v", listens[0])
	}
	if listens[1].ArtistName != "Björk" {
		t.Fatalf("unexpected second listen %+v", listens[1])
	}
}

func TestGetListensOmitsMaxTSWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["max_ts"]; ok {
			t.Errorf("max_ts must be omitted, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = w.Write([]byte(`{"payload":{"count":0,"listens":[]}}`))
	}))
	t.Cleanup(server.Close)

	client, _ := listenbrainz.New(server.URL)
	listens, err := client.GetListens(context.Background(), "alice", 0, 100)
	if err != nil || len(listens) != 0 {
		t.Fatalf("GetListens: %v %+v", err, listens)
	}
}

func TestGetListensUserNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":404,"error":"Cannot find user: ghost"}`))
	}))
	t.Cleanup(server.Close)

	client, _ := listenbrainz.New(server.URL)
	_, err := client.GetListens(context.Background(), "ghost", 0, 10)
	if !errors.Is(err, listenbrainz.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	var apiErr *listenbrainz.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Cannot find user: ghost" || apiErr.ErrorKind() != "not_found" {
		t.Fatalf("unexpected api error %#v", apiErr)
	}
}

func TestGetListensRetriesWhenRateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("X-RateLimit-Reset-In", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"payload":{"listens":[{"listened_at":5,"track_metadata":{"artist_name":"A","track_name":"T"}}]}}`))
	}))
	t.Cleanup(server.Close)

	client, _ := listenbrainz.New(server.URL)
	listens, err := client.GetListens(context.Background(), "alice", 0, 1)
	if err != nil {
		t.Fatalf("GetListens: %v", err)
	}
	if calls.Load() != 2 || len(listens) != 1 {
		t.Fatalf("calls=%d listens=%+v", calls.Load(), listens)
	}
}

func TestGetListensServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	t.Cleanup(server.Close)

	client, _ := listenbrainz.New(server.URL)
	_, err := client.GetListens(context.Background(), "alice", 0, 10)
	var apiErr *listenbrainz.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorKind() != "transient" || errors.Is(err, listenbrainz.ErrUserNotFound) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGetListensValidatesArguments(t *testing.T) {
	client, _ := listenbrainz.New("https://example.com")
	ctx := context.Background()
	if _, err := client.GetListens(ctx, "", 0, 10); err == nil {
		t.Fatal("expected error for empty user")
	}
	if _, err := client.GetListens(ctx, "alice", 0, 0); err == nil {
		t.Fatal("expected error for zero count")
	}
	if _, err := client.GetListens(ctx, "alice", 0, listenbrainz.MaxListensPerRequest+1); err == nil {
		t.Fatal("expected error for oversized count")
	}
}

func TestListenCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/user/alice/listen-count" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"payload":{"count":1234}}`))
	}))
	t.Cleanup(server.Close)

	client, _ := listenbrainz.New(server.URL)
	n, err := client.ListenCount(context.Background(), "alice")
	if err != nil || n != 1234 {
		t.Fatalf("ListenCount: n=%d err=%v", n, err)
	}
}
