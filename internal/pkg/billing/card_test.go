package billing

import "testing"

func TestNormalizeCardLastFour(t *testing.T) {
	tests := []struct {
		name string
		card map[string]any
		want string
	}{
		{
			name: "masked card number with separators",
			card: map[string]any{"id": "c1", "masked_card_no": "4111-1111 1111 1111"},
			want: "1111",
		},
		{
			name: "card_no key",
			card: map[string]any{"id": "c2", "card_no": "************4242"},
			want: "4242",
		},
		{
			name: "last4 fallback",
			card: map[string]any{"id": "c3", "last4": "9876"},
			want: "9876",
		},
		{
			name: "no digits anywhere",
			card: map[string]any{"id": "c4"},
			want: "",
		},
	}

	for _, tt := range tests {
		got := NormalizeCard(tt.card, "")
		if got == nil {
			t.Fatalf("%s: expected card, got nil", tt.name)
		}
		if got.LastFour != tt.want {
			t.Fatalf("%s: last_four = %q, want %q", tt.name, got.LastFour, tt.want)
		}
	}
}

func TestNormalizeCardExpire(t *testing.T) {
	got := NormalizeCard(map[string]any{
		"id":           "c1",
		"expire_month": float64(3),
		"expire_year":  "2027",
	}, "")
	if got == nil {
		t.Fatal("expected card, got nil")
	}
	if got.Expire != "03/27" {
		t.Fatalf("expire = %q, want 03/27", got.Expire)
	}

	// verbatim expire field when month/year are absent
	got = NormalizeCard(map[string]any{"id": "c2", "expire": "2712"}, "")
	if got.Expire != "2712" {
		t.Fatalf("expire = %q, want 2712", got.Expire)
	}
}

func TestNormalizeCardID(t *testing.T) {
	if got := NormalizeCard(map[string]any{"brand": "VISA"}, ""); got != nil {
		t.Fatalf("expected nil for card without id, got %+v", got)
	}

	got := NormalizeCard(map[string]any{"brand": "VISA"}, "card_fallback")
	if got == nil || got.ID != "card_fallback" {
		t.Fatalf("expected fallback id, got %+v", got)
	}

	got = NormalizeCard(map[string]any{"card_id": "c_real"}, "card_fallback")
	if got.ID != "c_real" {
		t.Fatalf("document id should win over fallback, got %q", got.ID)
	}
}

func TestExtractCardList(t *testing.T) {
	for _, key := range []string{"cards", "items", "data", "list"} {
		resp := map[string]any{
			key: []any{
				map[string]any{"id": "c1"},
				"not-an-object",
				map[string]any{"id": "c2"},
			},
		}
		got := extractCardList(resp)
		if len(got) != 2 {
			t.Fatalf("key %q: expected 2 cards, got %d", key, len(got))
		}
	}

	if got := extractCardList(map[string]any{"total": float64(0)}); got != nil {
		t.Fatalf("expected nil for response without list, got %v", got)
	}
}
