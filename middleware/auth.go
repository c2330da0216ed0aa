package middleware

import (
	"strings"
	"time"

	"neldrac_go/config"
	"neldrac_go/database"
	"neldrac_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	CenterID uint   `json:"center_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT token for a user
func GenerateToken(user *models.User) (string, error) {
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		CenterID: user.CenterID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(config.AppConfig.JWTExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// JWTMiddleware validates JWT tokens
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get token from Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		// Parse and validate token
		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(config.AppConfig.JWTSecret), nil
		})

		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		// Verify user still exists and is active
		var user models.User
		if err := database.DB.Where("id = ? AND status = ?", claims.UserID, "active").First(&user).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found or inactive",
			})
		}

		// Store user info in context
		c.Locals("user", &user)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// Operation names used by the authorization policy. Each named operation
// is declared once here with the roles allowed to perform it, instead of
// per-route role conditionals.
const (
	OpManageUsers      = "users:manage"
	OpManageEnquiries  = "enquiries:manage"
	OpSubmitAdmission  = "admissions:submit"
	OpDecideAdmission  = "admissions:decide"
	OpConvertEnquiry   = "admissions:convert"
	OpManageFees       = "fees:manage"
	OpCalculateFees    = "fees:calculate"
	OpIssueInvoices    = "invoices:issue"
	OpViewInvoices     = "invoices:view"
	OpManageReceipts   = "receipts:manage"
	OpViewReceipts     = "receipts:view"
	OpViewActivityLogs = "logs:view"
)

var policy = map[string][]string{
	OpManageUsers:      {"super_admin", "owner"},
	OpManageEnquiries:  {"super_admin", "owner", "admin"},
	OpSubmitAdmission:  {"super_admin", "owner", "admin"},
	OpDecideAdmission:  {"super_admin", "owner", "center_director"},
	OpConvertEnquiry:   {"super_admin", "owner", "admin"},
	OpManageFees:       {"super_admin", "admin"},
	OpCalculateFees:    {"super_admin", "owner", "admin", "center_director", "staff"},
	OpIssueInvoices:    {"super_admin", "owner", "admin"},
	OpViewInvoices:     {"super_admin", "owner", "admin", "center_director"},
	OpManageReceipts:   {"super_admin", "owner", "admin", "center_director"},
	OpViewReceipts:     {"super_admin", "owner", "admin", "center_director", "staff"},
	OpViewActivityLogs: {"super_admin", "owner"},
}

// Authorize gates a route on the policy table for the named operation.
// super_admin passes every center-scope check; everyone else is scoped to
// their own center by the controllers via CenterScope.
func Authorize(operation string) fiber.Handler {
	allowed, ok := policy[operation]
	if !ok {
		// Unknown operation names fail closed
		return func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Operation not permitted",
			})
		}
	}
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing user claims",
			})
		}
		for _, role := range allowed {
			if claims.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}

// GetCurrentUser returns the current authenticated user
func GetCurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User not found in context")
	}
	return user, nil
}

// GetCurrentClaims returns the current JWT claims
func GetCurrentClaims(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals("claims").(*Claims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Claims not found in context")
	}
	return claims, nil
}
