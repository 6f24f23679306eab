package balldontlie

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// BaseURL is the free Ball Don't Lie API.
	BaseURL = "https://www.balldontlie.io/api/v1"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Client is a thin HTTP wrapper over the Ball Don't Lie API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// NewClient creates a Ball Don't Lie client. The API works without a key but
// accepts one for higher limits.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type playerResponse struct {
	ID        int          `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Team      teamResponse `json:"team"`
}

type teamResponse struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
	FullName     string `json:"full_name"`
	Name         string `json:"name"`
	Conference   string `json:"conference"`
}

type gameResponse struct {
	ID               int          `json:"id"`
	Date             string       `json:"date"`
	HomeTeam         teamResponse `json:"home_team"`
	VisitorTeam      teamResponse `json:"visitor_team"`
	HomeTeamScore    int          `json:"home_team_score"`
	VisitorTeamScore int          `json:"visitor_team_score"`
	Status           string       `json:"status"`
}

type statResponse struct {
	Player   playerResponse `json:"player"`
	Team     teamResponse   `json:"team"`
	Game     gameResponse   `json:"game"`
	Points   int            `json:"pts"`
	Rebounds int            `json:"reb"`
	Assists  int            `json:"ast"`
	Steals   int            `json:"stl"`
	Blocks   int            `json:"blk"`
}

type playersPage struct {
	Data []playerResponse `json:"data"`
}

type statsPage struct {
	Data []statResponse `json:"data"`
}

type gamesPage struct {
	Data []gameResponse `json:"data"`
}

// SearchPlayers queries the player index by name fragment.
func (c *Client) SearchPlayers(ctx context.Context, search string) ([]playerResponse, error) {
	q := url.Values{"search": {search}, "per_page": {"50"}}
	var page playersPage
	if err := c.get(ctx, "/players", q, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// PlayerStats returns a player's per-game stat rows for a season.
func (c *Client) PlayerStats(ctx context.Context, playerID, season, perPage int) ([]statResponse, error) {
	q := url.Values{
		"player_ids[]": {fmt.Sprintf("%d", playerID)},
		"seasons[]":    {fmt.Sprintf("%d", season)},
		"per_page":     {fmt.Sprintf("%d", perPage)},
	}
	var page statsPage
	if err := c.get(ctx, "/stats", q, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// TeamGames returns a team's games between two dates.
func (c *Client) TeamGames(ctx context.Context, teamID int, start, end time.Time) ([]gameResponse, error) {
	q := url.Values{
		"team_ids[]": {fmt.Sprintf("%d", teamID)},
		"start_date": {start.Format("2006-01-02")},
		"end_date":   {end.Format("2006-01-02")},
		"per_page":   {"50"},
	}
	var page gamesPage
	if err := c.get(ctx, "/games", q, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
