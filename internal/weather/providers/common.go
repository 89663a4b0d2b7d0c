package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"
)

var (
	errNoHTTPClient = errors.New("http client not configured")
	errNoAPIKey     = errors.New("openweather api key is not configured")
)

// StatusError reports a lookup that returned no usable result: a non-200
// status or an empty body.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Status Code: %d. %s", e.StatusCode, e.Reason)
}

// getJSON issues a single GET to baseURL with the given query and decodes a
// 200 response into out. A non-200 status is reported as *StatusError with the
// given reason, as is a 200 with an empty body.
func getJSON(ctx context.Context, client *http.Client, baseURL string, values url.Values, reason string, out any) error {
	if client == nil {
		return errNoHTTPClient
	}

	u := fmt.Sprintf("%s?%s", baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Reason: reason}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(body) == 0 {
		return &StatusError{StatusCode: resp.StatusCode, Reason: reason}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
