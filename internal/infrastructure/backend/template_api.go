package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const genericFailure = "Something went wrong. Please try again."

// APIError is any failed shopper call. Status is 0 when the backend could
// not be reached.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Unauthorized reports whether the backend rejected the shopper token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// Request is one call under the vendor's template API prefix.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   any
}

// Response is a successful template API response.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
}

// Decode unmarshals the response's data field, or the whole body when there
// is no data envelope.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(unwrapData(r.Body), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// TemplateAPIFetch calls /template-api/{vendorId}{path} with the shopper's
// bearer token (when non-empty) and the vendor id attached. Every failure,
// network or HTTP, comes back as *APIError.
func (c *Client) TemplateAPIFetch(ctx context.Context, vendorID, token string, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	path := "/template-api/" + url.PathEscape(vendorID) + "/" + strings.TrimLeft(r.Path, "/")

	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Vendor-ID", vendorID).
		SetQueryParam("vendorId", vendorID)
	if token != "" {
		req.SetAuthToken(token)
	}
	for k, v := range r.Query {
		req.SetQueryParam(k, v)
	}
	if r.Body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(r.Body)
	}

	start := time.Now()
	resp, err := req.Execute(method, c.cfg.BaseURL+path)
	if err != nil {
		c.logger.Backend().Warn("Template API unreachable", "vendorId", vendorID, "method", method, "path", r.Path, "error", err)
		return nil, &APIError{Status: 0, Message: genericFailure}
	}
	c.logger.Backend().Debug("Template API request",
		"vendorId", vendorID,
		"method", method,
		"path", r.Path,
		"status", resp.StatusCode(),
		"duration", time.Since(start))

	body := resp.Bytes()
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: serverMessage(body)}
	}
	return &Response{Status: resp.StatusCode(), Body: body, ContentType: resp.Header().Get("Content-Type")}, nil
}

func serverMessage(body []byte) string {
	var payload struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, v := range []any{payload.Message, payload.Error} {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return genericFailure
}

// DecodeList unmarshals the item array of a list response into out.
func (r *Response) DecodeList(out any, keys ...string) error {
	items, ok := extractList(r.Body, keys...)
	if !ok {
		return fmt.Errorf("unexpected list response shape")
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode list: %w", err)
	}
	return nil
}
