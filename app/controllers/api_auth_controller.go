package controllers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tsunagi-works/tsunagi/app/models"
	"github.com/tsunagi-works/tsunagi/app/repository"
	"github.com/tsunagi-works/tsunagi/internal/pkg/billing"
	"github.com/tsunagi-works/tsunagi/internal/pkg/session"
	"github.com/tsunagi-works/tsunagi/internal/pkg/usercontext"
)

var (
	authUsers    repository.UserRepository
	authSessions *session.Manager
	authBilling  *billing.Service

	validate = validator.New()
)

// InitializeAuthController wires the auth endpoints' collaborators.
func InitializeAuthController(users repository.UserRepository, sessions *session.Manager, billingSvc *billing.Service) {
	authUsers = users
	authSessions = sessions
	authBilling = billingSvc
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CustomerName string `json:"customer_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates the user and its gateway customer. The customer is
// provisioned first; registration fails entirely when the gateway does.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if req.Email == "" {
		return errorResponse(c, fiber.StatusBadRequest, "email is required")
	}
	if req.Password == "" {
		return errorResponse(c, fiber.StatusBadRequest, "password is required")
	}

	email := models.NormalizeEmail(req.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid email format")
	}

	if _, err := authUsers.GetByEmail(email); err == nil {
		return errorResponse(c, fiber.StatusConflict, "User already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("user lookup failed: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "User registration failed")
	}

	customerName := req.CustomerName
	if customerName == "" {
		customerName = email
	}
	customerID, err := authBilling.CreateCustomer(c.UserContext(), customerName, email)
	if err != nil {
		log.Printf("fincode customer create failed: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "決済サービスの顧客登録に失敗しました")
	}

	user, err := models.CreateUser(email, req.Password)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid input data")
	}
	user.FincodeCustomerID = customerID

	if err := authUsers.Register(user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return errorResponse(c, fiber.StatusConflict, "User already exists")
		}
		log.Printf("user registration error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "User registration failed")
	}

	return successResponse(c, fiber.StatusCreated, fiber.Map{
		"message":             "User registered successfully",
		"user_id":             user.ID,
		"fincode_customer_id": customerID,
	})
}

// HandleLogin verifies credentials and binds the session. Invalid email,
// unknown user and wrong password all answer the same generic 401.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if req.Email == "" {
		return errorResponse(c, fiber.StatusBadRequest, "email is required")
	}
	if req.Password == "" {
		return errorResponse(c, fiber.StatusBadRequest, "password is required")
	}

	user, err := authUsers.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	if err := authSessions.Login(c, user.ID, user.Email); err != nil {
		log.Printf("session login failed: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Login failed")
	}

	return successResponse(c, fiber.StatusOK, fiber.Map{
		"message": "Login successful",
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

func HandleLogout(c *fiber.Ctx) error {
	authSessions.Destroy(c)

	return successResponse(c, fiber.StatusOK, fiber.Map{
		"message": "Logout successful",
	})
}

func HandleGetUser(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return errorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	return successResponse(c, fiber.StatusOK, fiber.Map{
		"user": fiber.Map{
			"id":    userCtx.UserID,
			"email": userCtx.Email,
		},
	})
}

// HandleSessionStatus reports the session's remaining lifetime. Answers 401
// once the session expired, which the browser uses to show its timeout
// warning.
func HandleSessionStatus(c *fiber.Ctx) error {
	info := authSessions.Info(c)
	if info == nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Session expired or not authenticated")
	}

	return successResponse(c, fiber.StatusOK, fiber.Map{
		"authenticated": true,
		"user": fiber.Map{
			"id":    info.UserID,
			"email": info.UserEmail,
		},
		"session": fiber.Map{
			"remaining_time": info.RemainingTime,
			"timeout":        info.Timeout,
		},
	})
}
