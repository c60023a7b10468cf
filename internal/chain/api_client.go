package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultAPITimeout = 5 * time.Second
	apiRetryMax       = 3
	apiErrorBodyLimit = 512
)

// APIClient implements WalletLookup and DelegateLister against the node public API.
type APIClient struct {
	baseURL         *url.URL
	client          *retryablehttp.Client
	activeDelegates int
}

// NewAPIClient builds a client for the node API at baseURL.
func NewAPIClient(baseURL string, activeDelegates int, timeout time.Duration) (*APIClient, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse node api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("node api url must include scheme and host")
	}
	if activeDelegates <= 0 {
		return nil, errors.New("active delegate count must be greater than zero")
	}
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}

	client := retryablehttp.NewClient()
	client.RetryMax = apiRetryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: timeout}

	return &APIClient{
		baseURL:         parsed,
		client:          client,
		activeDelegates: activeDelegates,
	}, nil
}

type walletResponse struct {
	Data struct {
		Address    string          `json:"address"`
		PublicKey  string          `json:"publicKey"`
		Balance    json.Number     `json:"balance"`
		Username   string          `json:"username"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

type delegatesResponse struct {
	Data []struct {
		Username  string `json:"username"`
		PublicKey string `json:"publicKey"`
		Rank      int    `json:"rank"`
	} `json:"data"`
}

// WalletByPublicKey implements WalletLookup.
func (c *APIClient) WalletByPublicKey(ctx context.Context, publicKey string) (Wallet, error) {
	if strings.TrimSpace(publicKey) == "" {
		return Wallet{}, errors.New("public key is empty")
	}

	var resp walletResponse
	if err := c.get(ctx, "/api/wallets/"+url.PathEscape(publicKey), nil, &resp); err != nil {
		return Wallet{}, fmt.Errorf("lookup wallet %s: %w", publicKey, err)
	}

	balance, err := parseBalance(resp.Data.Balance)
	if err != nil {
		return Wallet{}, fmt.Errorf("lookup wallet %s: %w", publicKey, err)
	}

	username := resp.Data.Username
	if username == "" {
		username = delegateUsername(resp.Data.Attributes)
	}

	return Wallet{
		Address:   resp.Data.Address,
		PublicKey: resp.Data.PublicKey,
		Balance:   balance,
		Username:  username,
	}, nil
}

// ActiveDelegates implements DelegateLister.
func (c *APIClient) ActiveDelegates(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.activeDelegates))
	query.Set("orderBy", "rank:asc")

	var resp delegatesResponse
	if err := c.get(ctx, "/api/delegates", query, &resp); err != nil {
		return nil, fmt.Errorf("list active delegates: %w", err)
	}

	usernames := make([]string, 0, len(resp.Data))
	for _, delegate := range resp.Data {
		if delegate.Rank > c.activeDelegates {
			continue
		}
		usernames = append(usernames, delegate.Username)
	}
	return usernames, nil
}

func (c *APIClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, apiErrorBodyLimit))
		if text := strings.TrimSpace(string(body)); text != "" {
			return fmt.Errorf("unexpected status: %s (%s)", resp.Status, text)
		}
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBalance(value json.Number) (int64, error) {
	if value == "" {
		return 0, nil
	}
	balance, err := strconv.ParseInt(value.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid balance %q: %w", value, err)
	}
	return balance, nil
}

// delegateUsername reads attributes.delegate.username.
func delegateUsername(attributes json.RawMessage) string {
	if len(attributes) == 0 {
		return ""
	}
	var attrs struct {
		Delegate struct {
			Username string `json:"username"`
		} `json:"delegate"`
	}
	if err := json.Unmarshal(attributes, &attrs); err != nil {
		return ""
	}
	return attrs.Delegate.Username
}
