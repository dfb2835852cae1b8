package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultTimeout = 20 * time.Second

type HTTPConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPClient builds the resty client shared by adapters. Responses are
// never cached client side.
func NewHTTPClient(cfg HTTPConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "gpu-price-index/1.0"
	}

	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetHeader("Cache-Control", "no-cache")
}

// CheckResponse converts transport errors and non-2xx responses into
// provider errors.
func CheckResponse(ctx context.Context, name string, resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return &Error{Provider: name, Err: ErrTimeout}
		}
		return Errorf(name, ErrFetchFailed, "%v", err)
	}
	if resp.IsError() {
		return Errorf(name, ErrFetchFailed, "unexpected status code %d", resp.StatusCode())
	}
	return nil
}

// DecodeError wraps a payload decoding failure.
func DecodeError(name string, err error) error {
	return &Error{Provider: name, Err: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
}
