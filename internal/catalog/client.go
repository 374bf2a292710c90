package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/logger"
)

type productResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    *Product `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// HTTPClient queries the product service over HTTP
type HTTPClient struct {
	httpClient *resty.Client
}

// NewHTTPClient creates a catalog client for the product service at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json")

	return &HTTPClient{httpClient: client}
}

// GetProduct fetches a product by ID
func (c *HTTPClient) GetProduct(ctx context.Context, id uint) (*Product, error) {
	headers := make(map[string]string)
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))

	var body productResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		SetResult(&body).
		SetError(&body).
		Get("/api/products/{id}")
	if err != nil {
		logger.Error(ctx).Err(err).Uint("product_id", id).Msg("Catalog request failed")
		return nil, fmt.Errorf("failed to call catalog service: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperr.NotFound("product", id)
	}
	if resp.IsError() || !body.Success || body.Data == nil {
		logger.Warn(ctx).
			Int("status_code", resp.StatusCode()).
			Str("error", body.Error).
			Uint("product_id", id).
			Msg("Catalog returned an error")
		return nil, fmt.Errorf("catalog service error: %s (status: %d)", body.Error, resp.StatusCode())
	}

	return body.Data, nil
}
