package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/httputil"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/rows"
)

const (
	statementsPath     = "/api/2.0/sql/statements"
	defaultWaitTimeout = "50s"
	httpTimeout        = 60 * time.Second
)

// DatabricksConfig identifies a SQL warehouse.
type DatabricksConfig struct {
	Host        string // workspace host name, with or without scheme
	HTTPPath    string // e.g. /sql/1.0/warehouses/abc123
	Token       string // personal access token
	WaitTimeout string // server-side wait, "5s" to "50s"
}

// WarehouseID returns the last '/'-separated segment of the HTTP path.
func (c DatabricksConfig) WarehouseID() string {
	path := strings.TrimRight(c.HTTPPath, "/")
	return path[strings.LastIndex(path, "/")+1:]
}

// BaseURL returns the statements endpoint for the configured host.
func (c DatabricksConfig) BaseURL() string {
	host := strings.TrimRight(c.Host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host + statementsPath
}

// Validate reports missing connection settings.
func (c DatabricksConfig) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.WarehouseID() == "" {
		missing = append(missing, "http_path")
	}
	if c.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "missing Databricks settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DatabricksClient runs queries through the Databricks SQL Statement
// Execution API and returns the inline JSON result.
//
// The client is safe for concurrent use.
type DatabricksClient struct {
	cfg     DatabricksConfig
	http    *http.Client
	logger  *log.Logger
	retry   httputil.Policy
	limiter *rate.Limiter
}

// ClientOption configures a [DatabricksClient].
type ClientOption func(*DatabricksClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(d *DatabricksClient) { d.http = c }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(l *log.Logger) ClientOption {
	return func(d *DatabricksClient) { d.logger = l }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(d *DatabricksClient) { d.retry.Attempts, d.retry.Delay = attempts, delay }
}

// WithRateLimit caps outgoing requests at perSecond, retries included.
// Zero or less means unlimited.
func WithRateLimit(perSecond float64) ClientOption {
	return func(d *DatabricksClient) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewDatabricksClient creates a client for the given warehouse.
func NewDatabricksClient(cfg DatabricksConfig, opts ...ClientOption) (*DatabricksClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.WaitTimeout == "" {
		cfg.WaitTimeout = defaultWaitTimeout
	}
	c := &DatabricksClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: httpTimeout},
		logger:  log.Default(),
		retry:   httputil.DefaultPolicy(),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Source identifies the warehouse for cache keys.
func (c *DatabricksClient) Source() string {
	return "databricks:" + c.cfg.WarehouseID()
}

type statementRequest struct {
	Statement     string `json:"statement"`
	WarehouseID   string `json:"warehouse_id"`
	WaitTimeout   string `json:"wait_timeout"`
	OnWaitTimeout string `json:"on_wait_timeout"`
	ResultFormat  string `json:"result_format"`
}

type statementResponse struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
		Error *struct {
			ErrorCode string `json:"error_code"`
			Message   string `json:"message"`
		} `json:"error"`
	} `json:"status"`
	Manifest struct {
		Schema struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"schema"`
	} `json:"manifest"`
	Result struct {
		DataArray [][]any `json:"data_array"`
	} `json:"result"`
}

// Fetch submits query and waits for its result. Network failures, 429 and
// 5xx responses are retried with exponential backoff.
func (c *DatabricksClient) Fetch(ctx context.Context, query string) (rows.ResultSet, error) {
	if err := errors.ValidateQuery(query); err != nil {
		return rows.ResultSet{}, err
	}
	body, err := json.Marshal(statementRequest{
		Statement:     query,
		WarehouseID:   c.cfg.WarehouseID(),
		WaitTimeout:   c.cfg.WaitTimeout,
		OnWaitTimeout: "CANCEL",
		ResultFormat:  "JSON",
	})
	if err != nil {
		return rows.ResultSet{}, err
	}

	var resp statementResponse
	policy := c.retry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.logger.Warn("retrying statement", "attempt", attempt, "wait", wait, "err", err)
	}
	err = httputil.Retry(ctx, policy, func() error {
		return c.post(ctx, body, &resp)
	})
	if err != nil {
		return rows.ResultSet{}, err
	}

	switch resp.Status.State {
	case "", "SUCCEEDED":
	default:
		msg := resp.Status.State
		if resp.Status.Error != nil && resp.Status.Error.Message != "" {
			msg += ": " + resp.Status.Error.Message
		}
		return rows.ResultSet{}, errors.New(errors.ErrCodeUpstream, "statement %s %s", resp.StatementID, msg)
	}

	rs := toResultSet(resp)
	c.logger.Debug("statement finished", "id", resp.StatementID, "columns", len(rs.Columns), "rows", len(rs.Rows))
	return rs, nil
}

func (c *DatabricksClient) post(ctx context.Context, body []byte, out *statementResponse) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "waiting for the Databricks request budget")
	}
	url := c.cfg.BaseURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	call := observability.Call{Method: req.Method, Host: req.URL.Host, Path: req.URL.Path}
	start := time.Now()

	resp, err := c.http.Do(req)
	call.Duration = time.Since(start)
	if err != nil {
		call.Err = err
		observability.QueryCall(ctx, call)
		c.logger.Warn("databricks request failed", "err", err)
		return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "Databricks query failed (network)")}
	}
	defer resp.Body.Close()
	call.Status = resp.StatusCode
	observability.QueryCall(ctx, call)

	if err := checkStatus(resp); err != nil {
		c.logger.Warn("databricks returned an error", "status", resp.StatusCode)
		return err
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeUpstream, err, "decode Databricks response")
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := errors.New(errors.ErrCodeUpstream, "Databricks API error: %d %s", code, http.StatusText(code))
	if len(detail) > 0 {
		err = errors.Wrap(errors.ErrCodeUpstream, fmt.Errorf("%s", bytes.TrimSpace(detail)), "Databricks API error: %d %s", code, http.StatusText(code))
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeUnauthorized, err, "Databricks rejected the token")
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &httputil.RetryableError{
			Err:   errors.Wrap(errors.ErrCodeRateLimited, err, "Databricks rate limit, retry after %ds", retryAfter),
			After: time.Duration(retryAfter) * time.Second,
		}
	case code >= 500:
		return &httputil.RetryableError{Err: err}
	default:
		return err
	}
}

// toResultSet zips the manifest's column names with each data_array row.
// Cells beyond the known columns are dropped and missing cells stay absent.
func toResultSet(resp statementResponse) rows.ResultSet {
	cols := resp.Manifest.Schema.Columns
	rs := rows.ResultSet{
		Columns: make([]string, len(cols)),
		Rows:    make([]rows.Row, 0, len(resp.Result.DataArray)),
	}
	for i, c := range cols {
		rs.Columns[i] = c.Name
	}
	for _, cells := range resp.Result.DataArray {
		r := make(rows.Row, len(cells))
		for i, v := range cells {
			if i < len(rs.Columns) {
				r[rs.Columns[i]] = v
			}
		}
		rs.Rows = append(rs.Rows, r)
	}
	return rs
}
