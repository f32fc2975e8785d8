package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/tsunagi-works/tsunagi/internal/pkg/billing"
	"github.com/tsunagi-works/tsunagi/internal/pkg/usercontext"
)

var subscriptionService *billing.Service

// InitializeSubscriptionController wires the subscription endpoints to the
// reconciliation service.
func InitializeSubscriptionController(svc *billing.Service) {
	subscriptionService = svc
}

// HandleGetSubscription returns the reconciled status bundle. Gateway
// unavailability degrades to local data inside the service and never
// reaches this error path.
func HandleGetSubscription(c *fiber.Ctx) error {
	res, err := subscriptionService.Status(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		log.Printf("subscription get error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "サブスクリプション情報の取得に失敗しました")
	}

	return successResponse(c, fiber.StatusOK, fiber.Map{
		"plan":         res.Plan,
		"subscription": res.Subscription,
		"remote":       res.Remote,
		"results":      res.Results,
		"public_key":   res.PublicKey,
	})
}

func HandleGetPlans(c *fiber.Ctx) error {
	plans, err := subscriptionService.Plans(c.UserContext())
	if err != nil {
		log.Printf("subscription plan fetch error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "プラン情報の取得に失敗しました")
	}

	return successResponse(c, fiber.StatusOK, fiber.Map{
		"plans": plans,
	})
}

func HandleGetCards(c *fiber.Ctx) error {
	res, err := subscriptionService.Cards(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		log.Printf("subscription cards fetch error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "カード情報の取得に失敗しました")
	}

	payload := fiber.Map{
		"cards":       res.Cards,
		"customer_id": res.CustomerID,
	}
	if res.Message != "" {
		payload["message"] = res.Message
	}
	return successResponse(c, fiber.StatusOK, payload)
}

func HandleSubscribe(c *fiber.Ctx) error {
	var input billing.SubscribeInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	res, err := subscriptionService.Subscribe(c.UserContext(), usercontext.GetUserID(c), input)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPlanRequired):
			return errorResponse(c, fiber.StatusBadRequest, "プランIDが設定されていません")
		case errors.Is(err, billing.ErrActiveSubscription):
			return errorResponse(c, fiber.StatusBadRequest, "既に有効なサブスクリプションが存在します")
		case errors.Is(err, billing.ErrCardRequired):
			return errorResponse(c, fiber.StatusBadRequest, "card_tokenを指定してください")
		case errors.Is(err, billing.ErrCustomerCreateFailed):
			return errorResponse(c, fiber.StatusInternalServerError, "顧客の作成に失敗しました")
		case errors.Is(err, billing.ErrCardRegisterFailed):
			return errorResponse(c, fiber.StatusInternalServerError, "カード登録に失敗しました")
		}
		log.Printf("subscription create error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "サブスクリプション登録に失敗しました")
	}

	return successResponse(c, fiber.StatusCreated, fiber.Map{
		"message":          "サブスクリプションを開始しました",
		"subscription":     res.Subscription,
		"fincode_response": res.Remote,
	})
}

func HandleRegisterCard(c *fiber.Ctx) error {
	var input billing.SubscribeInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if input.CardToken == "" {
		return errorResponse(c, fiber.StatusBadRequest, "card_token is required")
	}

	res, err := subscriptionService.RegisterCard(c.UserContext(), usercontext.GetUserID(c), input)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrCustomerCreateFailed):
			return errorResponse(c, fiber.StatusInternalServerError, "顧客の作成に失敗しました")
		case errors.Is(err, billing.ErrCardRegisterFailed):
			return errorResponse(c, fiber.StatusInternalServerError, "カード登録に失敗しました")
		}
		log.Printf("subscription card register error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "カード登録に失敗しました")
	}

	return successResponse(c, fiber.StatusCreated, fiber.Map{
		"message":          "カードを登録しました",
		"card_id":          res.CardID,
		"customer_id":      res.CustomerID,
		"subscription":     res.Subscription,
		"fincode_response": res.Remote,
	})
}

func HandleDeleteCard(c *fiber.Ctx) error {
	cardID := c.Params("cardId")
	if cardID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "cardId を指定してください")
	}

	res, err := subscriptionService.DeleteCard(c.UserContext(), usercontext.GetUserID(c), cardID)
	if err != nil {
		if errors.Is(err, billing.ErrNoCustomer) {
			return errorResponse(c, fiber.StatusNotFound, "カード情報が存在しません")
		}
		log.Printf("subscription card delete error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "カード削除に失敗しました")
	}

	return successResponse(c, fiber.StatusOK, fiber.Map{
		"message":          "カードを削除しました",
		"card_id":          res.CardID,
		"customer_id":      res.CustomerID,
		"subscription":     res.Subscription,
		"fincode_response": res.Remote,
	})
}

func HandleCancelSubscription(c *fiber.Ctx) error {
	res, err := subscriptionService.Cancel(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			return errorResponse(c, fiber.StatusNotFound, "有効なサブスクリプションが見つかりません")
		}
		log.Printf("subscription cancel error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "サブスクリプション解約に失敗しました")
	}

	return successResponse(c, fiber.StatusOK, fiber.Map{
		"message":          "サブスクリプションを解約しました",
		"subscription":     res.Subscription,
		"fincode_response": res.Remote,
	})
}
