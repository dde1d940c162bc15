package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"callsync/internal/calls"
	"callsync/pkg/metrics"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// maxErrorBodySize bounds how much of a failed response is kept for diagnostics.
const maxErrorBodySize = 4 * 1024

// maxResponseSize bounds a successful list response.
const maxResponseSize = 64 * 1024 * 1024

type VapiConfig struct {
	BaseURL string
	APIKey  string
	// Timeout bounds one FetchAll, including reading the body.
	Timeout time.Duration

	// Breaker settings; zero values select the defaults below.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// VapiSource lists calls from the Vapi REST API (GET {base}/call).
//
// Credential failures (missing key, 401, 403) are reported as KindCredential
// and do not count against the circuit breaker: retrying will not fix them,
// but they also say nothing about the remote's health.
type VapiSource struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]calls.RawRecord]
}

func NewVapiSource(cfg VapiConfig, client *http.Client) *VapiSource {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}

	s := &VapiSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  client,
	}
	s.breaker = gobreaker.NewCircuitBreaker[[]calls.RawRecord](gobreaker.Settings{
		Name:        "vapi",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || KindOf(err) == KindCredential
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			slog.Warn("source circuit breaker state changed", "source", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

func (s *VapiSource) Name() string { return "vapi" }

func (s *VapiSource) FetchAll(ctx context.Context) ([]calls.RawRecord, error) {
	if s.apiKey == "" {
		return nil, &Error{Kind: KindCredential, Err: ErrMissingCredential}
	}

	out, err := s.breaker.Execute(func() ([]calls.RawRecord, error) {
		return s.fetch(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("vapi unavailable: %w", err)}
	}
	return out, err
}

func (s *VapiSource) fetch(ctx context.Context) ([]calls.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/call", nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.SourceRequests.WithLabelValues(s.Name(), "error").Inc()
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()
	metrics.SourceRequests.WithLabelValues(s.Name(), statusClass(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Kind: KindCredential, StatusCode: resp.StatusCode, Err: ErrInvalidCredential}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &Error{
			Kind:       KindTransport,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("vapi API error: %s: %s", http.StatusText(resp.StatusCode), readBodyForError(resp.Body)),
		}
	}

	var out []calls.RawRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}

func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return strings.TrimSpace(string(body))
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
