package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const successStatus = "success"

type Config struct {
	BaseURL               string
	APIID                 string
	APIKey                string
	MerchantAccountNumber string
	// CallbackURL is called by the provider server-to-server,
	// ReturnURL and CancellationURL are where the user lands.
	CallbackURL     string
	ReturnURL       string
	CancellationURL string
	Timeout         time.Duration
	Breaker         circuitbreaker.Config
}

// Client talks to the hosted checkout provider.
type Client struct {
	cfg        Config
	httpClient *http.Client
	initiateCB *circuitbreaker.Breaker[string]
	statusCB   *circuitbreaker.Breaker[string]
}

func NewClient(ctx context.Context, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Breaker == (circuitbreaker.Config{}) {
		cfg.Breaker = circuitbreaker.DefaultConfig()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		initiateCB: circuitbreaker.New[string](ctx, "gateway-initiate", cfg.Breaker),
		statusCB:   circuitbreaker.New[string](ctx, "gateway-status", cfg.Breaker),
	}
}

// Initiate requests a hosted checkout page for orderCode and returns the URL
// the user must be redirected to. It does not retry.
func (c *Client) Initiate(ctx context.Context, totalAmount float64, description, orderCode string) (string, error) {
	body := initiateRequest{
		TotalAmount:           totalAmount,
		Description:           description,
		CallbackURL:           withOrderCode(c.cfg.CallbackURL, orderCode),
		ReturnURL:             withOrderCode(c.cfg.ReturnURL, orderCode),
		CancellationURL:       withOrderCode(c.cfg.CancellationURL, orderCode),
		MerchantAccountNumber: c.cfg.MerchantAccountNumber,
		ClientReference:       orderCode,
	}

	redirectURL, err := c.initiateCB.Execute(func() (string, error) {
		var resp initiateResponse
		if err := c.do(ctx, "initiate", http.MethodPost, c.endpoint("initiate"), body, &resp); err != nil {
			return "", err
		}
		if !strings.EqualFold(resp.Status, successStatus) {
			return "", &GatewayError{Op: "initiate", Err: fmt.Errorf("%w: %q", ErrUnsuccessfulStatus, resp.Status)}
		}
		if resp.Data.CheckoutURL == "" {
			return "", &GatewayError{Op: "initiate", Err: ErrMissingCheckoutURL}
		}
		return resp.Data.CheckoutURL, nil
	})
	return redirectURL, asGatewayError("initiate", err)
}

// Status returns the raw provider response code for the payment bound to orderCode.
func (c *Client) Status(ctx context.Context, orderCode string) (string, error) {
	code, err := c.statusCB.Execute(func() (string, error) {
		var resp statusResponse
		if err := c.do(ctx, "status", http.MethodGet, c.endpoint("transactions", orderCode, "status"), nil, &resp); err != nil {
			return "", err
		}
		return resp.ResponseCode, nil
	})
	return code, asGatewayError("status", err)
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &GatewayError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+c.credentials())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &GatewayError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnsuccessfulStatus, strings.TrimSpace(string(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// credentials is the base64 merchant credential pair used for Basic auth.
func (c *Client) credentials() string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.APIID + ":" + c.cfg.APIKey))
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.Join(escaped, "/")
}

func asGatewayError(op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	return &GatewayError{Op: op, Err: err}
}

// withOrderCode appends orderCode as a query parameter, keeping any existing ones.
func withOrderCode(raw, orderCode string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("orderCode", orderCode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Describe builds the human readable payment description from cart item names.
func Describe(cart domain.CartSnapshot) string {
	names := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		name := item.ProductName
		if name == "" {
			name = item.ProductID
		}
		names = append(names, fmt.Sprintf("%s x%d", name, item.Quantity))
	}
	return "Payment for " + strings.Join(names, ", ")
}
