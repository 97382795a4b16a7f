package inspect

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/democrat/pkg/archive"
	"github.com/vango-dev/democrat/pkg/codec"
)

// Config holds configuration for the inspect server.
type Config struct {
	// Address is the address to listen on for Run.
	// Default: "localhost:7070".
	Address string

	// MetricsPath is where the Prometheus handler is mounted. Empty disables
	// the endpoint.
	// Default: "/metrics".
	MetricsPath string

	// Gatherer is scraped by the metrics endpoint.
	// Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Format is the snapshot format used when a request does not name one.
	// Default: codec.FormatJSON.
	Format codec.Format

	// MaxBodySize limits the size of a POST /patches body.
	// Default: 1MB.
	MaxBodySize int64

	// ClientBuffer is the number of patch envelopes queued per websocket
	// client. A client that falls further behind is disconnected.
	// Default: 64.
	ClientBuffer int

	// WriteTimeout bounds a single websocket write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds how long Run waits for request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// CheckOrigin validates websocket origins.
	// Default: same host only.
	CheckOrigin func(r *http.Request) bool

	// Archive enables GET and POST /archive for listing and saving
	// snapshots. Nil disables the endpoints.
	Archive *archive.Archive

	// Logger receives request and connection logs.
	// Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           "localhost:7070",
		MetricsPath:       "/metrics",
		Gatherer:          prometheus.DefaultGatherer,
		Format:            codec.FormatJSON,
		MaxBodySize:       1 << 20,
		ClientBuffer:      64,
		WriteTimeout:      10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		CheckOrigin:       sameOrigin,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.Gatherer == nil {
		out.Gatherer = d.Gatherer
	}
	if out.Format == "" {
		out.Format = d.Format
	}
	if out.MaxBodySize == 0 {
		out.MaxBodySize = d.MaxBodySize
	}
	if out.ClientBuffer == 0 {
		out.ClientBuffer = d.ClientBuffer
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	return &out
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		errs = append(errs, fmt.Errorf("metrics path %q must start with /", c.MetricsPath))
	}
	if _, err := codec.ParseFormat(string(c.Format)); err != nil {
		errs = append(errs, err)
	}
	if c.MaxBodySize < 0 {
		errs = append(errs, errors.New("max body size must not be negative"))
	}
	if c.ClientBuffer < 0 {
		errs = append(errs, errors.New("client buffer must not be negative"))
	}
	return errors.Join(errs...)
}

// sameOrigin accepts requests without an Origin header and requests whose
// Origin host matches the Host header.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, host, ok := strings.Cut(origin, "://")
	return ok && strings.EqualFold(host, r.Host)
}
