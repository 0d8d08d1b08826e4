package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	c.baseURL = srv.URL
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestChannelByIDParsesResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("unexpected key %q", got)
		}
		w.Write([]byte(`{"items": [{
			"snippet": {"title": "GopherCon", "description": "talks"},
			"statistics": {"subscriberCount": "1000", "videoCount": "50", "viewCount": "90000"}
		}]}`))
	})

	details, err := c.ChannelByID(context.Background(), "UCgopher")
	if err != nil {
		t.Fatalf("ChannelByID failed: %v", err)
	}
	if details.Title != "GopherCon" || details.Description != "talks" {
		t.Errorf("unexpected snippet: %+v", details)
	}
	if details.SubscriberCount != 1000 || details.VideoCount != 50 || details.ViewCount != 90000 {
		t.Errorf("unexpected counts: %+v", details)
	}
}

func TestVideoByIDParsesResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{
			"snippet": {
				"title": "Go concurrency patterns",
				"description": "desc",
				"publishedAt": "2023-05-01T12:00:00Z",
				"tags": ["go", "talks"]
			},
			"contentDetails": {"duration": "PT1H2M3S"},
			"statistics": {"viewCount": "500", "likeCount": "20"}
		}]}`))
	})

	details, err := c.VideoByID(context.Background(), "abc")
	if err != nil {
		t.Fatalf("VideoByID failed: %v", err)
	}
	if details.Duration != "PT1H2M3S" {
		t.Errorf("unexpected duration %q", details.Duration)
	}
	if len(details.Tags) != 2 || details.Tags[0] != "go" {
		t.Errorf("unexpected tags %v", details.Tags)
	}
	if details.PublishedAt.Year() != 2023 {
		t.Errorf("unexpected publishedAt %v", details.PublishedAt)
	}
	// Missing count fields default to zero.
	if details.CommentCount != 0 {
		t.Errorf("expected zero comment count, got %d", details.CommentCount)
	}
}

func TestLookupReportsGoneEntities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	details, err := c.ChannelByID(context.Background(), "UCgone")
	if err != nil {
		t.Fatalf("ChannelByID failed: %v", err)
	}
	if details != nil {
		t.Errorf("expected nil for gone channel, got %+v", details)
	}
}

func TestLookupSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "quotaExceeded"}}`))
	})

	if _, err := c.ChannelByID(context.Background(), "UCany"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
