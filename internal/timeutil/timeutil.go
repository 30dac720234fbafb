package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDuration = errors.New("duration must be positive")

// WireTimeLayout is the canonical form of every stored timestamp. The marker
// is mandatory on write; ParseWireTime tolerates records written without it.
const (
	WireTimeLayout     = "2006-01-02 15:04:05 UTC"
	bareWireTimeLayout = "2006-01-02 15:04:05"
)

// DefaultTimezone is the display timezone of the store.
const DefaultTimezone = "Asia/Ho_Chi_Minh"

// FormatWireTime serializes a timestamp in the canonical UTC wire form.
func FormatWireTime(t time.Time) string {
	return t.UTC().Format(WireTimeLayout)
}

// ParseWireTime reads a stored timestamp, with or without the UTC marker.
// The result is always in UTC.
func ParseWireTime(s string) (time.Time, error) {
	if t, err := time.Parse(WireTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(bareWireTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ComputeDeadline returns the instant the given number of hours from now,
// truncated to whole seconds so it round-trips through the wire form, along
// with its canonical string.
func ComputeDeadline(hours int) (time.Time, string, error) {
	if hours <= 0 {
		return time.Time{}, "", ErrInvalidDuration
	}
	deadline := time.Now().UTC().Add(time.Duration(hours) * time.Hour).Truncate(time.Second)
	return deadline, FormatWireTime(deadline), nil
}

// Remaining renders the time left until the deadline for the customer-facing
// surface, composing only the non-zero day/hour/minute components.
func Remaining(deadline time.Time) string {
	return RemainingAt(deadline, time.Now().UTC())
}

// RemainingAt is Remaining against an explicit current instant.
func RemainingAt(deadline, now time.Time) string {
	remaining := deadline.Sub(now)

	if remaining <= 0 {
		return "Đã hết hạn"
	}

	total := int(remaining.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d ngày", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d giờ", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d phút", minutes))
	}

	return "Còn " + strings.Join(parts, " ")
}

// ToLocalTime converts a UTC instant into the given display timezone and
// returns the converted time with its zone label. An unknown zone falls back
// to the original instant labeled "UTC"; it never fails.
func ToLocalTime(t time.Time, timezone string) (time.Time, string) {
	if timezone == "" {
		timezone = DefaultTimezone
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return t.UTC(), "UTC"
	}

	local := t.In(loc)
	zone, _ := local.Zone()

	return local, zone
}
