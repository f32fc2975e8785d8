package billing

import (
	"strings"
	"time"
)

// The gateway expects Y/m/d on the wire while the database stores Y-m-d.
// These are two independent conversions; both propagate nil for anything
// unparsable rather than fabricating a date.

const (
	wireDateLayout  = "2006/01/02"
	storeDateLayout = "2006-01-02"
)

var dateLayouts = []string{
	storeDateLayout,
	wireDateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"20060102",
}

func parseDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateForGateway converts a date string to the gateway wire format (Y/m/d).
func DateForGateway(value string) *string {
	t, ok := parseDate(value)
	if !ok {
		return nil
	}
	s := t.Format(wireDateLayout)
	return &s
}

// DateForStore converts a date string to the storage format (Y-m-d).
func DateForStore(value string) *string {
	t, ok := parseDate(value)
	if !ok {
		return nil
	}
	s := t.Format(storeDateLayout)
	return &s
}

// Today returns the current date in storage format.
func Today() string {
	return time.Now().Format(storeDateLayout)
}
