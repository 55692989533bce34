package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	xhttp "CryptoChat/pkg/http"
)

// HTTPServiceBase issues JSON GET requests against a base URL.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

func NewHTTPServiceBase(baseURL string, opts ...xhttp.ClientOption) *HTTPServiceBase {
	return &HTTPServiceBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(opts...),
	}
}

// GetJSON fetches path under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("coingecko http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: params,
	}, dest)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

// GetJSONWithRetry is GetJSON with up to attempts tries for transient
// failures. Client errors such as 404 and 429 are returned immediately.
func (b *HTTPServiceBase) GetJSONWithRetry(ctx context.Context, path string, params map[string][]string, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.GetJSON(ctx, path, params, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.GetJSON(ctx, path, params, dest)
		if err == nil || !retryable(err) || i == attempts {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * 100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError
	}
	return true
}
