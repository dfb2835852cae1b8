// Package merge combines per-provider aggregates into one price per model
// using an explicit source priority.
package merge

import (
	"errors"
	"fmt"

	"github.com/gpuindex/gpu-price-index/internal/pricing"
)

var ErrInvalidPriority = errors.New("invalid merge priority")

// DefaultPriority lists providers from most to least trusted. Catalog
// sources outrank the marketplace; RunPod's catalog outranks Lambda's.
var DefaultPriority = Priority{"runpod", "lambda", "vastai"}

// Priority is an ordered list of provider names, highest priority first.
type Priority []string

func (p Priority) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPriority)
	}
	seen := make(map[string]bool, len(p))
	for _, name := range p {
		if name == "" {
			return fmt.Errorf("%w: empty provider name", ErrInvalidPriority)
		}
		if seen[name] {
			return fmt.Errorf("%w: %s listed twice", ErrInvalidPriority, name)
		}
		seen[name] = true
	}
	return nil
}

// Rank returns the position of a provider in the list, or -1.
func (p Priority) Rank(provider string) int {
	for i, name := range p {
		if name == provider {
			return i
		}
	}
	return -1
}

// Merge overlays provider sets from lowest to highest priority. A key present
// in a higher priority set replaces the lower entry entirely. Sets for
// providers missing from the priority list are ignored.
func Merge(priority Priority, sets map[string]pricing.Set) pricing.MergedSet {
	merged := make(pricing.MergedSet)

	for i := len(priority) - 1; i >= 0; i-- {
		provider := priority[i]
		for key, price := range sets[provider] {
			providers := append([]string{provider}, merged[key].Providers...)
			merged[key] = pricing.MergedPrice{
				ModelPrice: price,
				Providers:  providers,
			}
		}
	}

	return merged
}
