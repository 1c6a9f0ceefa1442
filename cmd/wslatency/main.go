// Command wslatency measures ping round-trip times against the live hub.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pscheid92/livescore/internal/platform/logging"
)

func main() {
	var (
		url      = flag.String("url", envOr("WS_URL", "ws://localhost:8000/ws"), "WebSocket URL (or set WS_URL env)")
		count    = flag.Int("count", 50, "Number of pings to send")
		interval = flag.Duration("interval", 50*time.Millisecond, "Delay between pings")
		timeout  = flag.Duration("timeout", 5*time.Second, "Give up after this long")
		verbose  = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, "text")

	if *count <= 0 {
		fmt.Fprintln(os.Stderr, "Invalid --count")
		os.Exit(1)
	}

	opts := options{url: *url, count: *count, interval: *interval, timeout: *timeout}
	fmt.Printf("Probing %s with %d pings every %s...\n", opts.url, opts.count, opts.interval)

	res, err := probe(context.Background(), websocket.DefaultDialer, opts)
	report(os.Stdout, opts.url, res)

	switch {
	case err != nil:
		slog.Error("Probe failed", "error", err)
		os.Exit(1)
	case res.outcome != outcomeComplete:
		os.Exit(2)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func report(w io.Writer, url string, res result) {
	s := summarize(res.samples)
	fmt.Fprintf(w, "\nWS latency probe (%s)\n", res.outcome)
	fmt.Fprintf(w, "URL: %s\n", url)
	fmt.Fprintf(w, "Sent: %d, Received: %d, Lost: %d\n", res.sent, res.received, max(0, res.sent-res.received))
	fmt.Fprintf(w, "min: %s  avg: %s  p50: %s  p95: %s  p99: %s  max: %s\n",
		s.min, s.avg, s.p50, s.p95, s.p99, s.max)
}
