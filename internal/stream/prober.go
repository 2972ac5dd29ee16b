package stream

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"concert-stream/utils"
)

// hlsHeader is the mandatory first tag of an HLS playlist. Origins
// sometimes serve a generic placeholder before the stream starts, so the
// body is sniffed even when transport and content type look right.
const hlsHeader = "#EXTM3U"

// maxSniffBytes bounds how much of the playlist is read for the sniff.
const maxSniffBytes = 64 << 10

var hlsMediaTypes = map[string]struct{}{
	"application/vnd.apple.mpegurl": {},
	"application/x-mpegurl":         {},
	"audio/mpegurl":                 {},
	"audio/x-mpegurl":               {},
}

// Prober checks whether the live feed is actually being served. Each
// Probe is a fresh round trip; nothing is cached between calls. Every
// failure mode degrades to "not available" instead of an error.
type Prober struct {
	playbackURL string
	hc          *http.Client
	breaker     *utils.CircuitBreaker
	log         *slog.Logger
}

func NewProber(playbackURL string, timeout time.Duration, log *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Prober{
		playbackURL: playbackURL,
		hc:          &http.Client{Timeout: timeout},
		breaker: utils.NewCircuitBreaker("playback-origin", utils.BreakerSettings{
			MinRequests:  8,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			FailureRatio: 0.9,
		}),
		log: log,
	}
}

// Configured reports whether a playback URL is set for this deployment.
func (p *Prober) Configured() bool {
	return p.playbackURL != ""
}

// Probe reports whether the playlist at the configured URL is live right
// now. A persistently dead origin trips the breaker so polling clients
// stop hammering it; breaker-open reads as unavailable like any other
// failure.
func (p *Prober) Probe(ctx context.Context) bool {
	if !p.Configured() {
		return false
	}

	result, err := p.breaker.Execute(ctx, func() (any, error) {
		return p.fetch(ctx)
	})
	if err != nil {
		p.log.Debug("playlist probe failed", slog.String("error", err.Error()))
		return false
	}

	live, _ := result.(bool)
	return live
}

type probeError string

func (e probeError) Error() string { return string(e) }

func (p *Prober) fetch(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.playbackURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := p.hc.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, probeError("unexpected status " + resp.Status)
	}

	if !isHLSContentType(resp.Header.Get("Content-Type")) {
		return false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSniffBytes))
	if err != nil {
		return false, err
	}

	return strings.Contains(string(body), hlsHeader), nil
}

func isHLSContentType(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	_, ok := hlsMediaTypes[strings.ToLower(mediaType)]
	return ok
}
