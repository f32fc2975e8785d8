package billing

import (
	"testing"
	"time"
)

func TestDateForGateway(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "2026-09-01", want: "2026/09/01"},
		{in: "2026/09/01", want: "2026/09/01"},
		{in: "2026-09-01 10:30:00", want: "2026/09/01"},
		{in: "20260901", want: "2026/09/01"},
	}

	for _, tt := range tests {
		got := DateForGateway(tt.in)
		if got == nil {
			t.Fatalf("DateForGateway(%q) = nil, want %q", tt.in, tt.want)
		}
		if *got != tt.want {
			t.Fatalf("DateForGateway(%q) = %q, want %q", tt.in, *got, tt.want)
		}
	}
}

func TestDateForStore(t *testing.T) {
	got := DateForStore("2026/10/15")
	if got == nil || *got != "2026-10-15" {
		t.Fatalf("DateForStore(2026/10/15) = %v, want 2026-10-15", got)
	}
}

func TestDateConversionRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "2026-13-45"} {
		if got := DateForGateway(in); got != nil {
			t.Fatalf("DateForGateway(%q) = %q, want nil", in, *got)
		}
		if got := DateForStore(in); got != nil {
			t.Fatalf("DateForStore(%q) = %q, want nil", in, *got)
		}
	}
}

func TestToday(t *testing.T) {
	got := Today()
	if _, err := time.Parse(storeDateLayout, got); err != nil {
		t.Fatalf("Today() = %q is not in storage format: %v", got, err)
	}
}
