package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/registryintel/shellnet/pkg/entity"
	"github.com/registryintel/shellnet/pkg/logging"
	"github.com/registryintel/shellnet/pkg/metrics"
)

// DefaultBaseURL is the production Companies House API endpoint.
const DefaultBaseURL = "https://api.company-information.service.gov.uk"

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	backoffBase       = 500 * time.Millisecond
	backoffCap        = 8 * time.Second
)

// Common client errors.
var (
	// ErrNotFound reports a company or resource the registry does not hold.
	ErrNotFound = errors.New("registry resource not found")
	// ErrUnauthorized reports a rejected API key.
	ErrUnauthorized = errors.New("registry rejected API key")
)

// StatusError reports a non-2xx response the client does not map to a
// sentinel error.
type StatusError struct {
	Resource string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry %s request failed with status %d", e.Resource, e.Code)
}

// Client is a Companies House API client. The API key is sent as the basic
// auth username with an empty password. Requests hit by rate limiting (429)
// or server errors are retried with exponential backoff up to the configured
// attempt count.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	logger     logging.Logger
	telemetry  *metrics.Registry
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, for tests and mirrors.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries sets the retry budget for rate-limited and failed requests.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTelemetry attaches a metrics registry.
func WithTelemetry(r *metrics.Registry) Option {
	return func(c *Client) { c.telemetry = r }
}

// NewClient creates a Companies House client with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs one authenticated GET with retries and decodes the body into
// out. Returns ErrNotFound on 404 and ErrUnauthorized on 401.
func (c *Client) get(ctx context.Context, resource, path string, query url.Values, out any) error {
	start := time.Now()
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.telemetry.RecordFetchRetry()
			if err := sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("build %s request: %w", resource, err)
		}
		req.SetBasicAuth(c.apiKey, "")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%s request: %w", resource, err)
			c.logger.Warn("registry request failed, retrying",
				logging.String("resource", resource),
				logging.Int("attempt", attempt+1),
				logging.Error(err))
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err = json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				c.telemetry.RecordFetch(resource, "decode_error", time.Since(start))
				return fmt.Errorf("decode %s response: %w", resource, err)
			}
			c.telemetry.RecordFetch(resource, "ok", time.Since(start))
			return nil
		case resp.StatusCode == http.StatusNotFound:
			drain(resp)
			c.telemetry.RecordFetch(resource, "not_found", time.Since(start))
			return fmt.Errorf("%s: %w", resource, ErrNotFound)
		case resp.StatusCode == http.StatusUnauthorized:
			drain(resp)
			c.telemetry.RecordFetch(resource, "unauthorized", time.Since(start))
			return fmt.Errorf("%s: %w", resource, ErrUnauthorized)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			drain(resp)
			lastErr = &StatusError{Resource: resource, Code: resp.StatusCode}
			c.logger.Warn("registry request throttled or failed, retrying",
				logging.String("resource", resource),
				logging.Int("status", resp.StatusCode),
				logging.Int("attempt", attempt+1))
			continue
		default:
			drain(resp)
			c.telemetry.RecordFetch(resource, "error", time.Since(start))
			return &StatusError{Resource: resource, Code: resp.StatusCode}
		}
	}

	c.telemetry.RecordFetch(resource, "exhausted", time.Since(start))
	return fmt.Errorf("%s retries exhausted: %w", resource, lastErr)
}

func sleepBackoff(ctx context.Context, attempt int) error {
	d := backoffBase << (attempt - 1)
	if d > backoffCap {
		d = backoffCap
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

type itemList[T any] struct {
	Items []T `json:"items"`
}

// GetCompanyProfile fetches the company profile record.
func (c *Client) GetCompanyProfile(ctx context.Context, companyNumber string) (*entity.Profile, error) {
	var p entity.Profile
	if err := c.get(ctx, "profile", "/company/"+companyNumber, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOfficers fetches the company's officer list.
func (c *Client) GetOfficers(ctx context.Context, companyNumber string) ([]entity.Officer, error) {
	var list itemList[entity.Officer]
	if err := c.get(ctx, "officers", "/company/"+companyNumber+"/officers", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// GetPSC fetches the company's persons-with-significant-control list.
func (c *Client) GetPSC(ctx context.Context, companyNumber string) ([]entity.PSC, error) {
	var list itemList[entity.PSC]
	path := "/company/" + companyNumber + "/persons-with-significant-control"
	if err := c.get(ctx, "psc", path, nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// GetFilingHistory fetches the company's filing history.
func (c *Client) GetFilingHistory(ctx context.Context, companyNumber string) ([]entity.Filing, error) {
	var list itemList[entity.Filing]
	if err := c.get(ctx, "filing_history", "/company/"+companyNumber+"/filing-history", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// SearchResult is one advanced-search hit.
type SearchResult struct {
	CompanyNumber  string `json:"company_number"`
	CompanyName    string `json:"company_name"`
	DateOfCreation string `json:"date_of_creation"`
	CompanyStatus  string `json:"company_status"`
}

// SearchCompanies runs an advanced search over incorporation dates. Dates
// use the registry's YYYY-MM-DD form; incorporatedTo may be empty.
func (c *Client) SearchCompanies(ctx context.Context, incorporatedFrom, incorporatedTo string, size int) ([]SearchResult, error) {
	query := url.Values{}
	query.Set("incorporated_from", incorporatedFrom)
	if incorporatedTo != "" {
		query.Set("incorporated_to", incorporatedTo)
	}
	query.Set("size", strconv.Itoa(size))

	var list itemList[SearchResult]
	if err := c.get(ctx, "search", "/advanced-search/companies", query, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// CompleteCompanyData assembles a full bundle for one company. Missing
// sub-resources are tolerated: a 404 on the profile yields a bundle with a
// nil profile, a 404 on a list yields an empty list. Other errors abort.
func (c *Client) CompleteCompanyData(ctx context.Context, companyNumber string) (*entity.Bundle, error) {
	bundle := &entity.Bundle{}

	profile, err := c.GetCompanyProfile(ctx, companyNumber)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	bundle.Profile = profile

	if bundle.Officers, err = c.GetOfficers(ctx, companyNumber); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if bundle.PSC, err = c.GetPSC(ctx, companyNumber); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if bundle.FilingHistory, err = c.GetFilingHistory(ctx, companyNumber); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return bundle, nil
}

// SampleByYear fetches complete bundles for up to size companies
// incorporated in the given calendar year.
func (c *Client) SampleByYear(ctx context.Context, year, size int) ([]entity.Bundle, error) {
	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-12-31", year)
	results, err := c.SearchCompanies(ctx, from, to, size)
	if err != nil {
		return nil, err
	}

	bundles := make([]entity.Bundle, 0, len(results))
	for _, r := range results {
		if r.CompanyNumber == "" {
			continue
		}
		b, err := c.CompleteCompanyData(ctx, r.CompanyNumber)
		if err != nil {
			return nil, fmt.Errorf("company %s: %w", r.CompanyNumber, err)
		}
		bundles = append(bundles, *b)
		c.logger.Debug("fetched company bundle",
			logging.EntityID(r.CompanyNumber),
			logging.Int("officers", len(b.Officers)),
			logging.Int("psc", len(b.PSC)),
			logging.Int("filings", len(b.FilingHistory)))
	}
	return bundles, nil
}
