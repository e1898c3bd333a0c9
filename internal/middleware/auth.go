package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/config"
	"clinic-agenda-server/internal/models"
	"clinic-agenda-server/internal/utils"
)

const sessionKey = "session"

// Session is the request-scoped capability object handed to downstream
// handlers: the authenticated user plus their clinic and plan. Handlers take
// the clinic id from here, never from request bodies.
type Session struct {
	UserID string
	Email  string
	Name   string
	Plan   *string
	Clinic *SessionClinic
}

// SessionClinic identifies the tenant the user administers.
type SessionClinic struct {
	ID   string
	Name string
}

// HasClinic reports whether the user has set up a clinic yet.
func (s *Session) HasClinic() bool {
	return s.Clinic != nil
}

// HasActivePlan reports whether the user has a paid subscription.
func (s *Session) HasActivePlan() bool {
	return s.Plan != nil && *s.Plan != ""
}

// AuthMiddleware validates the bearer token and resolves the full session:
// user row, clinic membership and plan. Requests without a valid token are
// rejected with 401.
func AuthMiddleware(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", claims.UserID).Error; err != nil {
			utils.Unauthorized(c, "User no longer exists")
			c.Abort()
			return
		}

		session := &Session{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Plan:   user.Plan,
		}

		// A user belongs to zero or one clinic through the join table.
		var membership models.UserClinic
		err = db.Preload("Clinic").First(&membership, "user_id = ?", user.ID).Error
		if err == nil {
			session.Clinic = &SessionClinic{
				ID:   membership.ClinicID,
				Name: membership.Clinic.Name,
			}
		} else if err != gorm.ErrRecordNotFound {
			utils.InternalServerError(c, "Database error resolving clinic: "+err.Error())
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireClinic rejects requests from users who have not created a clinic.
// It must be used after AuthMiddleware.
func RequireClinic() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			utils.InternalServerError(c, "Session not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}
		if !session.HasClinic() {
			utils.Forbidden(c, "A clinic is required for this operation.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePlan rejects requests from users without an active subscription.
// It must be used after AuthMiddleware.
func RequirePlan() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			utils.InternalServerError(c, "Session not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}
		if !session.HasActivePlan() {
			utils.Forbidden(c, "An active subscription is required for this operation.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession returns the session placed in the context by AuthMiddleware.
func GetSession(c *gin.Context) (*Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*Session)
	return session, ok
}
