package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("test-key")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.BaseURL = server.URL
	client.HTTPClient = server.Client()
	return client
}

func TestNew_MissingKey(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key" {
			t.Errorf("missing api key, got %q", q.Get("key"))
		}
		if q.Get("order") != OrderViewCount || q.Get("regionCode") != "KR" {
			t.Errorf("unexpected params: order=%q region=%q", q.Get("order"), q.Get("regionCode"))
		}
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": {"videoId": "v1"}, "snippet": {"title": "First", "channelId": "c1"}},
				{"id": {}, "snippet": {"title": "Channel hit, no video id"}},
				{"id": {"videoId": "v2"}, "snippet": {"title": "Second", "channelId": "c2"}}
			]
		}`))
	})

	client := testClient(t, mux)
	results, err := client.Search(context.Background(), SearchQuery{
		Query:      "shorts trending",
		Order:      OrderViewCount,
		RegionCode: "KR",
		MaxResults: 5,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results after dropping non-video hits, got %d", len(results))
	}
	if results[0].VideoID != "v1" || results[0].Title != "First" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
}

func TestVideos_ParsesStringCounters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "v1,v2" {
			t.Errorf("expected joined ids, got %q", got)
		}
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "v1", "snippet": {"title": "First", "channelId": "c1"}, "statistics": {"viewCount": "123456", "likeCount": "789"}},
				{"id": "v2", "snippet": {"title": "Second", "channelId": "c2"}, "statistics": {}}
			]
		}`))
	})

	client := testClient(t, mux)
	details, err := client.Videos(context.Background(), []string{"v1", "v2"})
	if err != nil {
		t.Fatalf("videos: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(details))
	}
	if details[0].ViewCount != 123456 || details[0].LikeCount != 789 {
		t.Fatalf("unexpected counters: %+v", details[0])
	}
	if details[1].ViewCount != 0 {
		t.Fatalf("absent counters must parse to 0, got %d", details[1].ViewCount)
	}
}

func TestVideos_EmptyInput(t *testing.T) {
	client := testClient(t, http.NewServeMux())
	details, err := client.Videos(context.Background(), nil)
	if err != nil || details != nil {
		t.Fatalf("expected nil/nil for empty input, got %v / %v", details, err)
	}
}

func TestChannel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"items": [{
				"id": "c1",
				"snippet": {"title": "Creator", "thumbnails": {"default": {"url": "https://example.test/t.jpg"}}},
				"statistics": {"subscriberCount": "1000"}
			}]
		}`))
	})

	client := testClient(t, mux)
	channel, err := client.Channel(context.Background(), "c1")
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if channel.SubscriberCount != 1000 || channel.Title != "Creator" {
		t.Fatalf("unexpected channel: %+v", channel)
	}
}

func TestChannel_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	})

	client := testClient(t, mux)
	if _, err := client.Channel(context.Background(), "ghost"); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
}

func TestGetJSON_UpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "quotaExceeded"}}`))
	})

	client := testClient(t, mux)
	if _, err := client.Search(context.Background(), SearchQuery{Query: "x"}); err == nil {
		t.Fatalf("expected upstream error")
	}
}
