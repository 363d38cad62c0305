// Package oracle handles oracle reference parsing and validation. The core
// engine stores the reference opaquely and never interprets it; the service
// layer validates the format at event creation and uses the provider
// segment to group events for exposure limits.
package oracle

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// refRegex matches: FRX-{provider}-{feed}-{YYYYMMDD}
// Example: FRX-sportsfeed-UEFA2026F-20260530
var refRegex = regexp.MustCompile(
	`^FRX-([a-z0-9]+)-([A-Za-z0-9]+)-(\d{8})$`,
)

var ErrInvalidRef = errors.New("oracle: invalid reference format")

// Ref is a parsed oracle reference.
type Ref struct {
	Raw      string    `json:"raw"`
	Provider string    `json:"provider"`
	Feed     string    `json:"feed"`
	Settles  time.Time `json:"settles"`
}

// ParseRef parses and validates an oracle reference string.
// Format: FRX-{provider}-{feed}-{YYYYMMDD}
func ParseRef(ref string) (*Ref, error) {
	matches := refRegex.FindStringSubmatch(ref)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s (expected FRX-{provider}-{feed}-{YYYYMMDD})",
			ErrInvalidRef, ref)
	}

	settles, err := time.Parse("20060102", matches[3])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %s", ErrInvalidRef, matches[3])
	}

	return &Ref{
		Raw:      ref,
		Provider: matches[1],
		Feed:     matches[2],
		Settles:  settles,
	}, nil
}

// Provider returns just the provider segment, or "" for a malformed ref.
// Convenience for grouping without a full parse result.
func Provider(ref string) string {
	matches := refRegex.FindStringSubmatch(ref)
	if matches == nil {
		return ""
	}
	return matches[1]
}
