package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/tsunagi-works/tsunagi/app/models"
	"github.com/tsunagi-works/tsunagi/app/repository"
)

// Gateway is the slice of the fincode client the reconciliation engine
// uses. Declared here so tests can substitute a fake provider.
type Gateway interface {
	CreateCustomer(ctx context.Context, name, email string) (map[string]any, error)
	GetCustomer(ctx context.Context, customerID string) (map[string]any, error)
	ListCards(ctx context.Context, customerID string, limit int) (map[string]any, error)
	GetCard(ctx context.Context, customerID, cardID string) (map[string]any, error)
	CreateCard(ctx context.Context, customerID, token string) (map[string]any, error)
	DeleteCard(ctx context.Context, customerID, cardID string) (map[string]any, error)
	GetPlans(ctx context.Context, limit int) (map[string]any, error)
	CreateSubscription(ctx context.Context, payload map[string]any) (map[string]any, error)
	GetSubscription(ctx context.Context, subscriptionID string) (map[string]any, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (map[string]any, error)
	GetResults(ctx context.Context, subscriptionID string, limit int) (map[string]any, error)
}

// Service keeps the local subscription row consistent with the gateway's
// view and presents one normalized bundle to callers. Remote reads are best
// effort: provider unavailability degrades to local data, never to a
// user-facing failure. Mutating actions surface gateway errors to the
// caller instead.
type Service struct {
	subs    repository.SubscriptionRepository
	users   repository.UserRepository
	gateway Gateway
	cfg     Config
}

// NewService wires the reconciliation engine from its collaborators.
func NewService(subs repository.SubscriptionRepository, users repository.UserRepository, gateway Gateway, cfg Config) *Service {
	return &Service{subs: subs, users: users, gateway: gateway, cfg: cfg}
}

// Status returns the reconciled subscription bundle for a user. When the
// local row references a gateway subscription the remote state is fetched
// and merged back into the row; remote status and next charge date win,
// every other column is preserved from local.
func (s *Service) Status(ctx context.Context, userID uint) (*StatusResult, error) {
	sub, err := s.loadRow(userID)
	if err != nil {
		return nil, err
	}

	var remote, results map[string]any
	if sub != nil && sub.SubscriptionID() != "" {
		remote, results, sub = s.refreshFromGateway(ctx, userID, sub)
	}

	fb := planFallback{}
	if remote != nil {
		fb.ID = stringField(remote, "plan_id")
		fb.Name = stringField(remote, "plan_name")
		fb.Price = anyField(remote, "price")
		fb.Currency = stringField(remote, "currency")
	}
	if fb.ID == "" && sub != nil {
		fb.ID = sub.PlanID
	}

	return &StatusResult{
		Plan:         s.cfg.planConfig(fb),
		Subscription: View(sub),
		Remote:       remote,
		Results:      results,
		PublicKey:    s.cfg.PublicKey,
	}, nil
}

// refreshFromGateway fetches the remote subscription plus recent billing
// results and persists the drift. Any gateway failure is logged and the
// local row returned untouched; staleness is acceptable here.
func (s *Service) refreshFromGateway(ctx context.Context, userID uint, sub *models.Subscription) (remote, results map[string]any, out *models.Subscription) {
	out = sub

	remote, err := s.gateway.GetSubscription(ctx, sub.SubscriptionID())
	if err != nil {
		log.Printf("fincode sync failed: %v", err)
		return nil, nil, out
	}

	results, err = s.gateway.GetResults(ctx, sub.SubscriptionID(), 5)
	if err != nil {
		log.Printf("fincode results fetch failed: %v", err)
		return remote, nil, out
	}

	merged := *sub
	if status := stringField(remote, "status", "subscription_status"); status != "" {
		merged.Status = status
	}
	if next := stringField(remote, "next_charge_date", "next_billing_date"); next != "" {
		merged.NextChargeDate = DateForStore(next)
	}
	merged.RawPayload = marshalPayload(remote)

	if err := s.subs.Upsert(&merged); err != nil {
		log.Printf("subscription refresh persist failed for user %d: %v", userID, err)
		return remote, results, out
	}
	return remote, results, &merged
}

// Cards lists the user's gateway cards. A missing customer linkage is a
// normal empty state; a flaky listing endpoint falls back to a direct fetch
// of the locally known card id.
func (s *Service) Cards(ctx context.Context, userID uint) (*CardsResult, error) {
	sub, err := s.loadRow(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	customerID := customerIDFrom(sub, user)
	if customerID == "" {
		return &CardsResult{
			Cards:   []Card{},
			Message: "保存済みカードはありません",
		}, nil
	}

	cards := []Card{}
	if resp, err := s.gateway.ListCards(ctx, customerID, 20); err != nil {
		log.Printf("fincode card list fetch failed: %v", err)
	} else {
		for _, row := range extractCardList(resp) {
			if normalized := NormalizeCard(row, ""); normalized != nil {
				cards = append(cards, *normalized)
			}
		}
	}

	if len(cards) == 0 && sub != nil && sub.CardID() != "" {
		if resp, err := s.gateway.GetCard(ctx, customerID, sub.CardID()); err != nil {
			log.Printf("fincode card fetch failed: %v", err)
		} else if normalized := NormalizeCard(resp, sub.CardID()); normalized != nil {
			cards = append(cards, *normalized)
		}
	}

	return &CardsResult{Cards: cards, CustomerID: customerID}, nil
}

// Plans lists the available plans from the gateway, falling back to the
// configured plan when the listing comes back empty.
func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	resp, err := s.gateway.GetPlans(ctx, 10)
	if err != nil {
		return nil, err
	}

	plans := []Plan{}
	for _, row := range extractPlanList(resp) {
		if p := normalizePlan(row); p != nil {
			plans = append(plans, *p)
		}
	}

	if len(plans) == 0 {
		fallback := s.cfg.planConfig(planFallback{})
		if fallback.ID != "" {
			plans = append(plans, fallback)
		}
	}
	return plans, nil
}

// Subscribe starts a subscription: resolves (or recreates) the gateway
// customer, registers a fresh card token when supplied, creates the remote
// subscription and upserts the local row from the gateway's reported state.
func (s *Service) Subscribe(ctx context.Context, userID uint, input SubscribeInput) (*ActionResult, error) {
	planID := strings.TrimSpace(input.PlanID)
	if planID == "" {
		planID = s.cfg.DefaultPlanID
	}
	if planID == "" {
		return nil, ErrPlanRequired
	}

	existing, err := s.loadRow(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.SubscriptionStatusActive {
		return nil, ErrActiveSubscription
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.resolveCustomer(ctx, user, existing, input.CustomerName)
	if err != nil {
		return nil, err
	}

	cardToken := strings.TrimSpace(input.CardToken)
	cardID := ""
	if existing != nil {
		cardID = existing.CardID()
	}
	if cardToken == "" && cardID == "" {
		return nil, ErrCardRequired
	}
	if cardToken != "" {
		cardResp, err := s.gateway.CreateCard(ctx, customerID, cardToken)
		if err != nil {
			return nil, err
		}
		cardID = stringField(cardResp, "id", "card_id")
	}
	if cardID == "" {
		return nil, ErrCardRegisterFailed
	}

	startInput := strings.TrimSpace(input.StartDate)
	if startInput == "" {
		startInput = Today()
	}
	startWire := DateForGateway(startInput)

	payload := map[string]any{
		"pay_type":    "Card",
		"plan_id":     planID,
		"customer_id": customerID,
		"card_id":     cardID,
		"start_date":  startWire,
	}
	resp, err := s.gateway.CreateSubscription(ctx, payload)
	if err != nil {
		return nil, err
	}

	status := stringField(resp, "status", "subscription_status")
	if status == "" {
		status = models.SubscriptionStatusActive
	}

	row := &models.Subscription{
		UserID:                userID,
		PlanID:                planID,
		FincodeCustomerID:     customerID,
		FincodeCardID:         optional(cardID),
		FincodeSubscriptionID: optional(stringField(resp, "id", "subscription_id")),
		Status:                status,
		StartDate:             DateForStore(startInput),
		NextChargeDate:        DateForStore(stringField(resp, "next_charge_date", "next_billing_date")),
		CancelAt:              nil,
		RawPayload:            marshalPayload(resp),
	}
	if err := s.subs.Upsert(row); err != nil {
		return nil, err
	}

	return &ActionResult{
		Subscription: View(row),
		Remote:       resp,
		CustomerID:   customerID,
		CardID:       cardID,
	}, nil
}

// RegisterCard registers a fresh card token as the user's default card,
// creating the gateway customer when necessary. The subscription row keeps
// every field except the card id and, for a row that never subscribed, a
// card_registered status.
func (s *Service) RegisterCard(ctx context.Context, userID uint, input SubscribeInput) (*ActionResult, error) {
	cardToken := strings.TrimSpace(input.CardToken)
	if cardToken == "" {
		return nil, ErrCardTokenRequired
	}

	existing, err := s.loadRow(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.resolveCustomer(ctx, user, existing, input.CustomerName)
	if err != nil {
		return nil, err
	}

	cardResp, err := s.gateway.CreateCard(ctx, customerID, cardToken)
	if err != nil {
		return nil, err
	}
	cardID := stringField(cardResp, "id", "card_id")
	if cardID == "" {
		return nil, ErrCardRegisterFailed
	}

	row := &models.Subscription{
		UserID:            userID,
		PlanID:            s.cfg.DefaultPlanID,
		FincodeCustomerID: customerID,
		FincodeCardID:     optional(cardID),
		Status:            models.SubscriptionStatusCardRegistered,
		RawPayload:        marshalPayload(cardResp),
	}
	if row.PlanID == "" {
		row.PlanID = "card_only"
	}
	if existing != nil {
		row.PlanID = existing.PlanID
		row.FincodeSubscriptionID = existing.FincodeSubscriptionID
		row.Status = existing.Status
		row.StartDate = existing.StartDate
		row.NextChargeDate = existing.NextChargeDate
		row.CancelAt = existing.CancelAt
	}
	if err := s.subs.Upsert(row); err != nil {
		return nil, err
	}

	return &ActionResult{
		Subscription: View(row),
		Remote:       cardResp,
		CustomerID:   customerID,
		CardID:       cardID,
	}, nil
}

// DeleteCard removes a card at the gateway and clears the local linkage
// when the deleted card was the locally known one.
func (s *Service) DeleteCard(ctx context.Context, userID uint, cardID string) (*ActionResult, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, ErrCardIDRequired
	}

	sub, err := s.loadRow(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	customerID := customerIDFrom(sub, user)
	if customerID == "" {
		return nil, ErrNoCustomer
	}

	resp, err := s.gateway.DeleteCard(ctx, customerID, cardID)
	if err != nil {
		return nil, err
	}

	if sub != nil && sub.CardID() == cardID {
		merged := *sub
		merged.FincodeCardID = nil
		merged.RawPayload = marshalPayload(resp)
		if err := s.subs.Upsert(&merged); err != nil {
			return nil, err
		}
		sub = &merged
	}

	return &ActionResult{
		Subscription: View(sub),
		Remote:       resp,
		CustomerID:   customerID,
		CardID:       cardID,
	}, nil
}

// Cancel terminates the remote subscription and records the cancellation
// locally: status canceled, next charge cleared, cancel date stamped today.
// Every other field is preserved verbatim.
func (s *Service) Cancel(ctx context.Context, userID uint) (*ActionResult, error) {
	sub, err := s.loadRow(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.SubscriptionID() == "" {
		return nil, ErrNoSubscription
	}

	resp, err := s.gateway.CancelSubscription(ctx, sub.SubscriptionID())
	if err != nil {
		return nil, err
	}

	merged := *sub
	merged.Status = models.SubscriptionStatusCanceled
	merged.NextChargeDate = nil
	merged.CancelAt = optional(Today())
	merged.RawPayload = marshalPayload(resp)
	if err := s.subs.Upsert(&merged); err != nil {
		return nil, err
	}

	return &ActionResult{
		Subscription: View(&merged),
		Remote:       resp,
	}, nil
}

// CreateCustomer provisions a gateway customer, as during registration.
// Returns the new customer id.
func (s *Service) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	resp, err := s.gateway.CreateCustomer(ctx, name, email)
	if err != nil {
		return "", err
	}
	customerID := stringField(resp, "id", "customer_id")
	if customerID == "" {
		return "", ErrCustomerCreateFailed
	}
	return customerID, nil
}

// resolveCustomer returns a usable gateway customer id. A stored id is
// verified remotely; one that no longer resolves is treated as gone and a
// customer is recreated rather than failing the flow. A newly created id is
// linked to the user only when the user had none.
func (s *Service) resolveCustomer(ctx context.Context, user *models.User, sub *models.Subscription, customerName string) (string, error) {
	customerID := customerIDFrom(sub, user)
	if customerID != "" {
		if _, err := s.gateway.GetCustomer(ctx, customerID); err != nil {
			log.Printf("fincode customer fetch failed, recreate: %v", err)
			customerID = ""
		}
	}
	if customerID != "" {
		return customerID, nil
	}

	name := strings.TrimSpace(customerName)
	if name == "" {
		name = user.Email
	}
	if name == "" {
		name = fmt.Sprintf("Tsunagi User %d", user.ID)
	}

	resp, err := s.gateway.CreateCustomer(ctx, name, user.Email)
	if err != nil {
		return "", err
	}
	customerID = stringField(resp, "id", "customer_id")
	if customerID == "" {
		return "", ErrCustomerCreateFailed
	}

	if user.FincodeCustomerID == "" {
		if err := s.users.SetCustomerIDIfEmpty(user.ID, customerID); err != nil {
			log.Printf("failed to link fincode customer %s to user %d: %v", customerID, user.ID, err)
		}
	}
	return customerID, nil
}

// loadRow fetches the user's subscription row, mapping "no row yet" to nil.
func (s *Service) loadRow(userID uint) (*models.Subscription, error) {
	sub, err := s.subs.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func customerIDFrom(sub *models.Subscription, user *models.User) string {
	if sub != nil && sub.FincodeCustomerID != "" {
		return sub.FincodeCustomerID
	}
	if user != nil {
		return user.FincodeCustomerID
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func marshalPayload(doc map[string]any) string {
	raw, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return string(raw)
}
