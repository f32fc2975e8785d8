package billing

import "testing"

func TestPlanConfigDefaults(t *testing.T) {
	cfg := Config{PlanCurrency: "JPY"}

	got := cfg.planConfig(planFallback{})
	if got.Name != "Standard Plan" {
		t.Fatalf("name = %q, want Standard Plan", got.Name)
	}
	if got.Currency != "JPY" {
		t.Fatalf("currency = %q, want JPY", got.Currency)
	}
}

func TestPlanConfigConfiguredValuesWin(t *testing.T) {
	cfg := Config{
		DefaultPlanID: "plan_env",
		PlanName:      "Env Plan",
		PlanPrice:     "500",
		PlanCurrency:  "JPY",
	}

	got := cfg.planConfig(planFallback{
		ID:    "plan_remote",
		Name:  "Remote Plan",
		Price: float64(980),
	})
	if got.ID != "plan_env" || got.Name != "Env Plan" || got.Price != "500" {
		t.Fatalf("configured id/name/price should win, got %+v", got)
	}
}

func TestPlanConfigRemoteCurrencyWins(t *testing.T) {
	cfg := Config{DefaultPlanID: "plan_env", PlanCurrency: "JPY"}

	// unlike id/name/price, a gateway-reported currency overrides the
	// configured default
	got := cfg.planConfig(planFallback{Currency: "USD"})
	if got.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", got.Currency)
	}
}

func TestPlanConfigFallbackFills(t *testing.T) {
	cfg := Config{PlanCurrency: "JPY"}

	got := cfg.planConfig(planFallback{ID: "plan_remote", Name: "Remote", Price: float64(980)})
	if got.ID != "plan_remote" || got.Name != "Remote" || got.Price != float64(980) {
		t.Fatalf("fallback should fill unset config, got %+v", got)
	}
}

func TestNormalizePlan(t *testing.T) {
	got := normalizePlan(map[string]any{
		"plan_id":  "p1",
		"name":     "Basic",
		"amount":   float64(980),
		"currency": "JPY",
	})
	if got == nil || got.ID != "p1" || got.Name != "Basic" {
		t.Fatalf("got %+v", got)
	}

	if got := normalizePlan(map[string]any{"name": "orphan"}); got != nil {
		t.Fatalf("plan without id should be dropped, got %+v", got)
	}
}
