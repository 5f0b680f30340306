// backend/src/services/bank_client.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// UpstreamError reports a non-2xx answer from the aggregator.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("bank aggregator %s returned HTTP %d", e.Endpoint, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// BankClientConfig configures the aggregator client.
type BankClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	// RequestsPerSecond paces outbound calls; zero disables pacing.
	RequestsPerSecond float64
	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
}

// BankClient talks to the aggregator REST API. The bearer token comes from
// GET /auth and is reused until it expires or a request is rejected with 401.
type BankClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	timeout      time.Duration
	transport    http.RoundTripper
	limiter      *rate.Limiter

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

const maxErrorBody = 512

func NewBankClient(cfg BankClientConfig) *BankClient {
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	c := &BankClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		timeout:      timeout,
		transport:    transport,
		limiter:      limiter,
	}
	c.tokens = c.newTokenSource()
	return c
}

func (c *BankClient) ListBanks(ctx context.Context, customerID string) ([]models.Bank, error) {
	var banks []models.Bank
	err := c.getJSON(ctx, "/accounts", url.Values{"customer_id": {customerID}}, &banks)
	return banks, err
}

func (c *BankClient) ListAccounts(ctx context.Context, entityID string) ([]models.Account, error) {
	var accounts []models.Account
	err := c.getJSON(ctx, "/fetch-accounts", url.Values{"entity_id": {entityID}}, &accounts)
	return accounts, err
}

func (c *BankClient) GetBalance(ctx context.Context, accountID, entityID string) (models.Balance, error) {
	var balance models.Balance
	err := c.getJSON(ctx, "/balance", url.Values{"account_id": {accountID}, "entity_id": {entityID}}, &balance)
	return balance, err
}

func (c *BankClient) ListTransactions(ctx context.Context, accountID, entityID string) ([]models.RawTransaction, error) {
	var body struct {
		Transactions []models.RawTransaction `json:"transactions"`
	}
	err := c.getJSON(ctx, "/transactions", url.Values{"account_id": {accountID}, "entity_id": {entityID}}, &body)
	return body.Transactions, err
}

// getJSON performs an authorized GET and decodes the body into out. A 401
// drops the cached token and retries exactly once.
func (c *BankClient) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	resp, err := c.do(ctx, endpoint, query)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		logger.FromContext(ctx).Info("Bank aggregator rejected token, refreshing", "endpoint", endpoint)
		c.resetToken()
		if resp, err = c.do(ctx, endpoint, query); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newUpstreamError(endpoint, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrUpstream, endpoint, err)
	}
	return nil
}

func (c *BankClient) do(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{
		Timeout:   c.timeout,
		Transport: &oauth2.Transport{Source: c.tokenSource(), Base: c.transport},
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return nil, upstream
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, endpoint, err)
	}
	logger.FromContext(ctx).Debug("Bank aggregator call", "endpoint", endpoint, "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

func (c *BankClient) tokenSource() oauth2.TokenSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *BankClient) resetToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = c.newTokenSource()
}

func (c *BankClient) newTokenSource() oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &authTokenSource{client: c})
}

// authTokenSource exchanges the client credentials for an access token.
type authTokenSource struct {
	client *BankClient
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *authTokenSource) Token() (*oauth2.Token, error) {
	c := s.client
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth", nil)
	if err != nil {
		return nil, fmt.Errorf("building auth request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := (&http.Client{Transport: c.transport, Timeout: c.timeout}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: /auth: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newUpstreamError("/auth", resp)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding /auth response: %v", ErrUpstream, err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: /auth returned no access token", ErrUpstream)
	}

	token := &oauth2.Token{AccessToken: body.AccessToken, TokenType: "Bearer"}
	if body.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	logger.L.Debug("Obtained bank aggregator access token", "expiresIn", body.ExpiresIn)
	return token, nil
}

func newUpstreamError(endpoint string, resp *http.Response) *UpstreamError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
