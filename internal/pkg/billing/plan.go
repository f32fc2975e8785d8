package billing

import "github.com/tsunagi-works/tsunagi/internal/pkg/env"

// Config carries the environment-resolved billing settings: the fallback
// plan presented when neither the gateway nor the local row knows one, and
// the publishable key handed to the browser for tokenization.
type Config struct {
	DefaultPlanID string
	PlanName      string
	PlanPrice     string
	PlanCurrency  string
	PublicKey     string
}

// ConfigFromEnv resolves the billing configuration once at startup.
func ConfigFromEnv() Config {
	return Config{
		DefaultPlanID: env.GetEnv("FINCODE_PLAN_ID", ""),
		PlanName:      env.GetEnv("SUBSCRIPTION_PLAN_NAME", ""),
		PlanPrice:     env.GetEnv("SUBSCRIPTION_PLAN_PRICE", ""),
		PlanCurrency:  env.GetEnv("SUBSCRIPTION_PLAN_CURRENCY", "JPY"),
		PublicKey:     env.GetFirst("", "FINCODE_PUBLIC_KEY", "public_key"),
	}
}

// planFallback holds remote/local plan hints feeding planConfig.
type planFallback struct {
	ID       string
	Name     string
	Price    any
	Currency string
}

// planConfig resolves the displayed plan: configured values win for
// id/name/price, the gateway-reported currency wins over the configured
// default.
func (cfg Config) planConfig(fb planFallback) Plan {
	id := cfg.DefaultPlanID
	if id == "" {
		id = fb.ID
	}

	name := cfg.PlanName
	if name == "" {
		name = fb.Name
	}
	if name == "" {
		name = "Standard Plan"
	}

	var price any = cfg.PlanPrice
	if cfg.PlanPrice == "" && fb.Price != nil {
		price = fb.Price
	}

	currency := cfg.PlanCurrency
	if fb.Currency != "" {
		currency = fb.Currency
	}

	return Plan{
		ID:       id,
		Name:     name,
		Price:    price,
		Currency: currency,
	}
}

// normalizePlan converts a gateway plan document to the client shape. Plans
// without a resolvable id are dropped.
func normalizePlan(doc map[string]any) *Plan {
	id := stringField(doc, "id", "plan_id")
	if id == "" {
		return nil
	}
	return &Plan{
		ID:       id,
		Name:     stringField(doc, "name", "plan_name"),
		Price:    anyField(doc, "price", "amount"),
		Currency: stringField(doc, "currency", "currency_code"),
	}
}

// extractPlanList pulls the plan array out of a listing response.
func extractPlanList(resp map[string]any) []map[string]any {
	return listField(resp, "plans", "items", "data", "list")
}
