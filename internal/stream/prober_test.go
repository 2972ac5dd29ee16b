package stream

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func playlistServer(contentType, body string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestProbe_NoURLConfigured(t *testing.T) {
	p := NewProber("", time.Second, testLogger())

	assert.False(t, p.Configured())
	assert.False(t, p.Probe(context.Background()))
}

func TestProbe_LivePlaylist(t *testing.T) {
	srv := playlistServer("application/vnd.apple.mpegurl",
		"#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:6\n", http.StatusOK)
	defer srv.Close()

	p := NewProber(srv.URL, time.Second, testLogger())

	assert.True(t, p.Probe(context.Background()))
}

func TestProbe_AlternateHLSMediaTypes(t *testing.T) {
	for _, ct := range []string{
		"application/x-mpegURL",
		"audio/mpegurl",
		"application/vnd.apple.mpegurl; charset=utf-8",
	} {
		srv := playlistServer(ct, "#EXTM3U\n", http.StatusOK)
		p := NewProber(srv.URL, time.Second, testLogger())

		assert.True(t, p.Probe(context.Background()), "content type %q", ct)
		srv.Close()
	}
}

func TestProbe_PlaceholderWithoutHeader(t *testing.T) {
	// Transport succeeds but the body is a pre-roll placeholder.
	srv := playlistServer("application/vnd.apple.mpegurl", "stream starts soon", http.StatusOK)
	defer srv.Close()

	p := NewProber(srv.URL, time.Second, testLogger())

	assert.False(t, p.Probe(context.Background()))
}

func TestProbe_WrongContentType(t *testing.T) {
	srv := playlistServer("text/html", "#EXTM3U\n", http.StatusOK)
	defer srv.Close()

	p := NewProber(srv.URL, time.Second, testLogger())

	assert.False(t, p.Probe(context.Background()))
}

func TestProbe_ErrorStatus(t *testing.T) {
	srv := playlistServer("application/vnd.apple.mpegurl", "", http.StatusNotFound)
	defer srv.Close()

	p := NewProber(srv.URL, time.Second, testLogger())

	assert.False(t, p.Probe(context.Background()))
}

func TestProbe_UnreachableOrigin(t *testing.T) {
	srv := playlistServer("application/vnd.apple.mpegurl", "#EXTM3U\n", http.StatusOK)
	srv.Close() // connection refused from here on

	p := NewProber(srv.URL, time.Second, testLogger())

	assert.False(t, p.Probe(context.Background()))
}

func TestProbe_MalformedURL(t *testing.T) {
	p := NewProber("http://[::1]:namedport/playlist.m3u8", time.Second, testLogger())

	assert.NotPanics(t, func() {
		assert.False(t, p.Probe(context.Background()))
	})
}

func TestProbe_HungOriginTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	p := NewProber(srv.URL, 100*time.Millisecond, testLogger())

	start := time.Now()
	live := p.Probe(context.Background())

	assert.False(t, live)
	assert.Less(t, time.Since(start), 2*time.Second, "probe must bound its wait")
}

func TestProbe_FreshRoundTripEachCall(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.Write([]byte("#EXTM3U\n"))
	}))
	defer srv.Close()

	p := NewProber(srv.URL, time.Second, testLogger())
	p.Probe(context.Background())
	p.Probe(context.Background())
	p.Probe(context.Background())

	assert.Equal(t, 3, hits, "probe results must not be cached")
}
