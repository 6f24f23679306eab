package scoreboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	// baseURL for Google Sports searches.
	baseURL = "https://www.google.com/search"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// minRequestInterval prevents rate limiting from repeated scrapes.
	minRequestInterval = 2 * time.Second
)

// Client scrapes the Google sports card with a headless browser. The card is
// rendered by JS, so a plain GET is not enough.
type Client struct {
	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration
	timeout     time.Duration

	allocCtx context.Context
	cancel   context.CancelFunc

	log *logrus.Logger
}

// NewClient creates the scraper client and its Chrome allocator.
func NewClient(timeout time.Duration, log *logrus.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Client{
		interval: minRequestInterval,
		timeout:  timeout,
		allocCtx: allocCtx,
		cancel:   cancel,
		log:      log,
	}, nil
}

// Close releases the browser allocator.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// FetchGamesHTML fetches the sports card HTML for recent NBA games.
func (c *Client) FetchGamesHTML(ctx context.Context) (string, error) {
	return c.fetchWithRateLimit(ctx, "nba games today")
}

// FetchTeamHTML fetches the sports card HTML for one team's latest game.
func (c *Client) FetchTeamHTML(ctx context.Context, teamName string) (string, error) {
	return c.fetchWithRateLimit(ctx, fmt.Sprintf("nba %s score", teamName))
}

func (c *Client) fetchWithRateLimit(ctx context.Context, query string) (string, error) {
	c.mu.Lock()
	if !c.lastRequest.IsZero() {
		if elapsed := time.Since(c.lastRequest); elapsed < c.interval {
			wait := c.interval - elapsed
			c.log.WithField("component", "scoreboard-client").Debugf("rate limiting: waiting %v", wait)
			time.Sleep(wait)
		}
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	return c.fetch(ctx, query)
}

func (c *Client) fetch(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(c.allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, c.timeout)
	defer cancelTimeout()

	// Abandon the browser run as soon as the request context dies.
	go func() {
		<-ctx.Done()
		cancelBrowser()
	}()

	var htmlContent string
	url := fmt.Sprintf("%s?q=%s", baseURL, strings.ReplaceAll(query, " ", "+"))

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second), // allow JS to render the card
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}
	return htmlContent, nil
}

// ParseHTML converts raw HTML to a goquery document.
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
