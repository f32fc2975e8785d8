package billing

import "testing"

func TestStringField(t *testing.T) {
	doc := map[string]any{
		"empty":  "",
		"padded": "  hello  ",
		"num":    float64(1000),
		"frac":   float64(19.9),
		"nilval": nil,
	}

	if got := stringField(doc, "empty", "padded"); got != "hello" {
		t.Fatalf("expected precedence to skip empty value, got %q", got)
	}
	if got := stringField(doc, "num"); got != "1000" {
		t.Fatalf("integral float should stringify without decimals, got %q", got)
	}
	if got := stringField(doc, "frac"); got != "19.9" {
		t.Fatalf("got %q, want 19.9", got)
	}
	if got := stringField(doc, "nilval", "missing"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestIntValue(t *testing.T) {
	if n, ok := intValue(float64(12)); !ok || n != 12 {
		t.Fatalf("intValue(12.0) = %d, %v", n, ok)
	}
	if n, ok := intValue(" 7 "); !ok || n != 7 {
		t.Fatalf("intValue(\" 7 \") = %d, %v", n, ok)
	}
	if _, ok := intValue("seven"); ok {
		t.Fatal("expected non-numeric string to fail")
	}
	if _, ok := intValue(nil); ok {
		t.Fatal("expected nil to fail")
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := digitsOnly("4111-1111 1111 1111"); got != "4111111111111111" {
		t.Fatalf("got %q", got)
	}
	if got := digitsOnly("no digits"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
