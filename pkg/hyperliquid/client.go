// Package hyperliquid talks to the exchange's read-only info endpoint
// and turns its loosely-typed JSON into domain records.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
)

const DefaultBaseURL = "https://api.hyperliquid.xyz/info"

// probeTimeout bounds the connectivity check independently of the
// configured request timeout.
const probeTimeout = 10 * time.Second

type Client interface {
	// ClearinghouseState returns the wallet's open positions (zero-size
	// entries filtered out, mark price unset) and its margin summary.
	ClearinghouseState(ctx context.Context) ([]models.Position, models.AccountSummary, error)
	// AllMids returns the current mid price for every listed symbol.
	AllMids(ctx context.Context) (*models.PriceBook, error)
	// UserFills returns the wallet's fill history, most recent first.
	UserFills(ctx context.Context) ([]models.Fill, error)
	// OpenOrders returns the wallet's resting orders.
	OpenOrders(ctx context.Context) ([]models.Order, error)
	// Ping verifies the endpoint answers with usable data.
	Ping(ctx context.Context) error
}

type InfoClient struct {
	baseURL    string
	wallet     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

func NewInfoClient(baseURL, wallet string, timeout time.Duration, logger *logrus.Logger) *InfoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &InfoClient{
		baseURL: baseURL,
		wallet:  wallet,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		// The info endpoint is shared by the monitor loop and the bot
		// command path; keep the combined request rate polite.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:  logger,
	}
}

type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
}

func (c *InfoClient) post(ctx context.Context, req infoRequest) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal info request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build info request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "info request %q", req.Type)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("info request %q: unexpected status %d", req.Type, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read info response %q", req.Type)
	}
	return data, nil
}

func (c *InfoClient) ClearinghouseState(ctx context.Context) ([]models.Position, models.AccountSummary, error) {
	c.logger.Debug("Fetching clearinghouse state")

	data, err := c.post(ctx, infoRequest{Type: "clearinghouseState", User: c.wallet})
	if err != nil {
		return nil, models.AccountSummary{}, err
	}

	positions, account, err := parseClearinghouseState(data, c.logger)
	if err != nil {
		return nil, models.AccountSummary{}, err
	}

	c.logger.WithField("positions", len(positions)).Info("Fetched clearinghouse state")
	return positions, account, nil
}

func (c *InfoClient) AllMids(ctx context.Context) (*models.PriceBook, error) {
	c.logger.Debug("Fetching mid prices")

	data, err := c.post(ctx, infoRequest{Type: "allMids"})
	if err != nil {
		return nil, err
	}

	book, err := parseAllMids(data, c.logger)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("symbols", book.Len()).Info("Fetched mid prices")
	return book, nil
}

func (c *InfoClient) UserFills(ctx context.Context) ([]models.Fill, error) {
	c.logger.Debug("Fetching user fills")

	data, err := c.post(ctx, infoRequest{Type: "userFills", User: c.wallet})
	if err != nil {
		return nil, err
	}

	fills, err := parseFills(data, c.logger)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("fills", len(fills)).Info("Fetched user fills")
	return fills, nil
}

func (c *InfoClient) OpenOrders(ctx context.Context) ([]models.Order, error) {
	c.logger.Debug("Fetching open orders")

	data, err := c.post(ctx, infoRequest{Type: "openOrders", User: c.wallet})
	if err != nil {
		return nil, err
	}

	orders, err := parseOrders(data, c.logger)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("orders", len(orders)).Info("Fetched open orders")
	return orders, nil
}

// Ping issues an unauthenticated allMids request and checks the answer
// is a non-empty price map.
func (c *InfoClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	book, err := c.AllMids(ctx)
	if err != nil {
		return errors.Wrap(err, "connectivity probe")
	}
	if book.Len() == 0 {
		return errors.New("connectivity probe: empty price map")
	}
	return nil
}
