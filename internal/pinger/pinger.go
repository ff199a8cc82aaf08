// Package pinger checks that a list of websites answer with a healthy HTTP
// status.
package pinger

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jamesprial/pi-monitor/internal/notify"
)

// Mail texts for ping failures.
const (
	Subject = "Raspberry Pi Website Ping errors"
	Heading = "The following websites returned non-200 status codes:"
)

const defaultConcurrency = 4

// Result is the outcome of one GET.
type Result struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
	Err    string `json:"error,omitempty"`
}

// OK reports whether the site answered 200 or 303.
func (r Result) OK() bool {
	return r.Err == "" && (r.Status == http.StatusOK || r.Status == http.StatusSeeOther)
}

// String formats r as an alert line.
func (r Result) String() string {
	if r.Err != "" {
		return fmt.Sprintf("Result: (%s, error - %s)", r.URL, r.Err)
	}
	return fmt.Sprintf("Result: (%s, %d - %s)", r.URL, r.Status, r.Reason)
}

// Pinger issues GET requests with bounded concurrency.
type Pinger struct {
	client      *http.Client
	concurrency int
	logger      zerolog.Logger
}

// New returns a Pinger. A nil client gets one with timeout; concurrency below
// one uses a default.
func New(client *http.Client, timeout time.Duration, concurrency int, logger zerolog.Logger) *Pinger {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Pinger{client: client, concurrency: concurrency, logger: logger}
}

// Check requests every URL and returns one Result per URL in input order.
func (p *Pinger) Check(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = p.get(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Ping returns an alert line for every URL that did not answer 200 or 303,
// in input order.
func (p *Pinger) Ping(ctx context.Context, urls []string) []string {
	var lines []string
	for _, r := range p.Check(ctx, urls) {
		if !r.OK() {
			lines = append(lines, r.String())
		}
	}
	return lines
}

func (p *Pinger) get(ctx context.Context, url string) Result {
	res := Result{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		res.Err = err.Error()
		p.logger.Warn().Err(err).Str("url", url).Msg("Website ping failed")
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.Reason = reason(resp)
	p.logger.Debug().
		Str("url", url).
		Int("status", res.Status).
		Dur("elapsed", time.Since(start)).
		Msg("Website pinged")
	return res
}

// reason returns the server's reason phrase, falling back to the standard
// text for the code.
func reason(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if phrase := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); phrase != "" {
		return phrase
	}
	return http.StatusText(resp.StatusCode)
}

// Message wraps alert lines in the ping failure letter.
func Message(lines []string) notify.Message {
	return notify.Message{Subject: Subject, Heading: Heading, Lines: lines}
}
