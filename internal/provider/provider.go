// Package provider defines the shape every external pricing source
// implements and the shared machinery around it.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/gpuindex/gpu-price-index/internal/pricing"
)

var (
	ErrFetchFailed     = errors.New("provider fetch failed")
	ErrTimeout         = errors.New("provider timeout")
	ErrInvalidResponse = errors.New("invalid response from provider")
	ErrMissingAPIKey   = errors.New("provider api key not configured")
)

// Provider is one external pricing source.
type Provider interface {
	// Name is the identifier used in merge priority and history sources.
	Name() string

	// FetchOffers performs one outbound call. A provider that needs an API
	// key and has none returns an empty list and no error.
	FetchOffers(ctx context.Context) ([]pricing.Offer, error)

	// ParseName maps a vendor GPU name to its canonical model.
	ParseName(vendorName string) (pricing.ModelName, bool)

	// Aggregate reduces offers to one summary per canonical model.
	Aggregate(offers []pricing.Offer) pricing.Set
}

// Error tags a failure with the provider that produced it.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf wraps sentinel with context and tags it with the provider name.
func Errorf(provider string, sentinel error, format string, args ...interface{}) error {
	return &Error{
		Provider: provider,
		Err:      fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}
