package billing

import "errors"

// Sentinel errors produced by the service. Handlers map them onto HTTP
// statuses; anything else is treated as a gateway/store failure and reported
// generically.
var (
	ErrPlanRequired         = errors.New("plan id is not configured")
	ErrActiveSubscription   = errors.New("an active subscription already exists")
	ErrCardTokenRequired    = errors.New("card_token is required")
	ErrCardRequired         = errors.New("a card token or a registered card is required")
	ErrCardIDRequired       = errors.New("cardId is required")
	ErrCustomerCreateFailed = errors.New("gateway customer creation failed")
	ErrCardRegisterFailed   = errors.New("gateway card registration failed")
	ErrNoCustomer           = errors.New("no gateway customer exists for this user")
	ErrNoSubscription       = errors.New("no active subscription found")
)
