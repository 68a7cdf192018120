package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Request carries what the downstream provider needs to fulfill an order.
type Request struct {
	ClientID string
	OrderID  string
}

// Result is the provider's acknowledgement of a fulfilled order.
type Result struct {
	FulfillmentID string
}

// Gateway submits an order to the external fulfillment provider. A non-nil
// error means the order was not fulfilled; the caller decides what happens to
// the already-reserved funds.
type Gateway interface {
	Fulfill(ctx context.Context, req Request) (Result, error)
}

// HTTPGateway calls a JSON-over-HTTP fulfillment provider. Each call is
// bounded by the configured timeout so a slow provider cannot hold an order
// open indefinitely.
type HTTPGateway struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// NewHTTPGateway builds a gateway against baseURL. A zero timeout falls back
// to 6 seconds.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &HTTPGateway{
		client:  &http.Client{},
		baseURL: baseURL,
		timeout: timeout,
	}
}

type providerRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

// The provider is loose about the id type, so accept anything and stringify.
type providerResponse struct {
	ID any `json:"id"`
}

func (g *HTTPGateway) Fulfill(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(providerRequest{UserID: req.ClientID, Title: req.OrderID})
	if err != nil {
		return Result{}, fmt.Errorf("encode fulfillment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build fulfillment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("call fulfillment provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("fulfillment provider returned status %d", resp.StatusCode)
	}

	var decoded providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("decode fulfillment response: %w", err)
	}

	id := ""
	if decoded.ID != nil {
		id = fmt.Sprintf("%v", decoded.ID)
	}
	if id == "" {
		id = fmt.Sprintf("mock-%d", time.Now().UnixMilli())
	}
	return Result{FulfillmentID: id}, nil
}

// StaticGateway fulfills every order locally with a generated identifier.
// Used in development mode when no provider URL is configured.
type StaticGateway struct{}

func (StaticGateway) Fulfill(_ context.Context, _ Request) (Result, error) {
	return Result{FulfillmentID: "local-" + uuid.NewString()}, nil
}
