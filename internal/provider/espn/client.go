package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// BaseURL is ESPN's public site API.
	BaseURL = "https://site.api.espn.com/apis/site/v2/sports"

	// StandingsURL uses the v2 apis path, which carries conference groups.
	StandingsURL = "https://site.api.espn.com/apis/v2/sports/basketball/nba/standings"

	basketballNBA = "basketball/nba"
)

// Client handles ESPN API requests.
// Note: uses curl internally because ESPN blocks Go's HTTP client fingerprint.
type Client struct {
	baseURL      string
	standingsURL string
	timeout      time.Duration
	log          *logrus.Logger
}

// NewClient creates an ESPN API client. Empty baseURL selects the production
// endpoint; tests point it at a local fixture server.
func NewClient(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		baseURL:      baseURL,
		standingsURL: StandingsURL,
		timeout:      timeout,
		log:          log,
	}
}

// FetchScoreboard fetches games for a specific date. A zero date fetches
// ESPN's "today", which includes games within roughly 24 hours.
func (c *Client) FetchScoreboard(ctx context.Context, date time.Time) (map[string]interface{}, error) {
	var url string
	if date.IsZero() {
		url = fmt.Sprintf("%s/%s/scoreboard", c.baseURL, basketballNBA)
	} else {
		url = fmt.Sprintf("%s/%s/scoreboard?dates=%s", c.baseURL, basketballNBA, date.Format("20060102"))
	}
	return c.fetch(ctx, url)
}

// FetchGameSummary fetches a detailed game summary with box scores.
func (c *Client) FetchGameSummary(ctx context.Context, eventID string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/%s/summary?event=%s", c.baseURL, basketballNBA, eventID)
	return c.fetch(ctx, url)
}

// FetchStandings fetches the current league standings.
func (c *Client) FetchStandings(ctx context.Context) (map[string]interface{}, error) {
	return c.fetch(ctx, c.standingsURL)
}

// fetch makes an HTTP GET request using curl. ESPN blocks Go's HTTP client
// but curl works reliably.
func (c *Client) fetch(ctx context.Context, url string) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxSecs := fmt.Sprintf("%d", int(c.timeout.Seconds())+1)
	cmd := exec.CommandContext(ctx, "curl", "-s", "-L", "-m", maxSecs, url)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("curl failed: %s (stderr: %s)", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("curl execution failed: %w", err)
	}

	// An HTML body means ESPN served an error or block page.
	if len(output) > 0 && output[0] == '<' {
		return nil, fmt.Errorf("ESPN returned HTML error page: %s", string(output[:min(len(output), 200)]))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w (body: %s)", err, string(output[:min(len(output), 200)]))
	}

	c.log.WithFields(logrus.Fields{
		"component": "espn-client",
		"url":       url,
		"bytes":     len(output),
	}).Debug("fetched")

	return result, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
