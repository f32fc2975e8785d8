package billing

import "github.com/tsunagi-works/tsunagi/app/models"

// Plan is the client-facing plan descriptor. Price stays loosely typed
// because it arrives either as a JSON number from the gateway or as a string
// from configuration.
type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    any    `json:"price"`
	Currency string `json:"currency"`
}

// Card is the normalized view of a gateway card record. Raw keeps the
// original document for the client; the typed fields are what the UI binds.
type Card struct {
	ID           string         `json:"id"`
	Brand        string         `json:"brand,omitempty"`
	CardNo       string         `json:"card_no,omitempty"`
	MaskedCardNo string         `json:"masked_card_no,omitempty"`
	LastFour     string         `json:"last_four,omitempty"`
	Expire       string         `json:"expire,omitempty"`
	ExpireMonth  any            `json:"expire_month,omitempty"`
	ExpireYear   any            `json:"expire_year,omitempty"`
	HolderName   string         `json:"holder_name,omitempty"`
	Fingerprint  string         `json:"fingerprint,omitempty"`
	DefaultFlag  any            `json:"default_flag,omitempty"`
	CardStatus   string         `json:"card_status,omitempty"`
	Raw          map[string]any `json:"raw"`
}

// SubscriptionView is the subset of the local row exposed over the API.
type SubscriptionView struct {
	PlanID                string  `json:"plan_id"`
	Status                string  `json:"status"`
	StartDate             *string `json:"start_date"`
	NextChargeDate        *string `json:"next_charge_date"`
	CancelAt              *string `json:"cancel_at"`
	FincodeSubscriptionID *string `json:"fincode_subscription_id"`
	FincodeCustomerID     string  `json:"fincode_customer_id"`
	FincodeCardID         *string `json:"fincode_card_id"`
}

// View formats a subscription row for API responses, or nil for no row.
func View(sub *models.Subscription) *SubscriptionView {
	if sub == nil {
		return nil
	}
	return &SubscriptionView{
		PlanID:                sub.PlanID,
		Status:                sub.Status,
		StartDate:             sub.StartDate,
		NextChargeDate:        sub.NextChargeDate,
		CancelAt:              sub.CancelAt,
		FincodeSubscriptionID: sub.FincodeSubscriptionID,
		FincodeCustomerID:     sub.FincodeCustomerID,
		FincodeCardID:         sub.FincodeCardID,
	}
}

// StatusResult is the reconciled status bundle for GET /api/subscription.
type StatusResult struct {
	Plan         Plan              `json:"plan"`
	Subscription *SubscriptionView `json:"subscription"`
	Remote       map[string]any    `json:"remote"`
	Results      map[string]any    `json:"results"`
	PublicKey    string            `json:"public_key"`
}

// CardsResult is the response for GET /api/subscription/cards. Message is
// set when no gateway customer exists yet; that is a normal state, not a
// failure.
type CardsResult struct {
	Cards      []Card `json:"cards"`
	CustomerID string `json:"customer_id"`
	Message    string `json:"message,omitempty"`
}

// SubscribeInput carries the caller-supplied fields for subscribe and card
// registration actions.
type SubscribeInput struct {
	PlanID       string `json:"plan_id"`
	CardToken    string `json:"card_token"`
	StartDate    string `json:"start_date"`
	CustomerName string `json:"customer_name"`
}

// ActionResult is the common outcome of the mutating subscription actions.
type ActionResult struct {
	Subscription *SubscriptionView `json:"subscription"`
	Remote       map[string]any    `json:"fincode_response"`
	CustomerID   string            `json:"customer_id,omitempty"`
	CardID       string            `json:"card_id,omitempty"`
}
