package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultBaseURL is the public CallMeBot WhatsApp endpoint.
	DefaultBaseURL   = "https://api.callmebot.com/whatsapp.php"
	defaultUserAgent = "SafeX-2FA-Bot/1.0"
	defaultBackoff   = 200 * time.Millisecond
	maxBackoff       = 2 * time.Second
)

// CallMeBotConfig configures the relay client.
type CallMeBotConfig struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	MaxRetries uint64
	Backoff    time.Duration
	HTTPClient *http.Client
}

// CallMeBot is a Sender backed by the CallMeBot relay.
type CallMeBot struct {
	baseURL    string
	apiKey     string
	userAgent  string
	maxRetries uint64
	backoff    time.Duration
	client     *http.Client
}

// NewCallMeBot builds the client. A missing API key is not an error here;
// Send reports ErrAPIKeyRequired so a development instance can still boot.
func NewCallMeBot(cfg CallMeBotConfig) *CallMeBot {
	c := &CallMeBot{
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		client:     cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.backoff <= 0 {
		c.backoff = defaultBackoff
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 10 * time.Second}
	}
	return c
}

// Send delivers msg, retrying transient failures.
func (c *CallMeBot) Send(ctx context.Context, msg Message) error {
	if c.apiKey == "" {
		return ErrAPIKeyRequired
	}

	phone := strings.TrimPrefix(strings.TrimSpace(msg.Phone), "+")
	if phone == "" {
		return ErrPhoneRequired
	}

	q := url.Values{}
	q.Set("phone", phone)
	q.Set("text", msg.Text)
	q.Set("apikey", c.apiKey)
	target := c.baseURL + "?" + q.Encode()

	b := retry.NewFibonacci(c.backoff)
	b = retry.WithCappedDuration(maxBackoff, b)
	b = retry.WithMaxRetries(c.maxRetries, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := c.do(ctx, target)
		if err != nil {
			slog.WarnContext(ctx, "whatsapp: delivery attempt failed", "attempt", attempt, "error", err)
		}
		return err
	})
}

func (c *CallMeBot) do(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return retry.RetryableError(fmt.Errorf("whatsapp: send: %w", redact(err)))
	}
	defer resp.Body.Close()

	//nolint:errcheck // drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return retry.RetryableError(err)
	}
	return err
}

// redact drops the request URL, which carries the API key, from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
