package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// PlanEssential is the only paid plan; a nil Plan means no subscription.
const PlanEssential = "essential"

// User represents an account holder. Subscription state (Plan and the two
// Stripe IDs) is mutated exclusively by the billing synchronizer in response
// to verified provider events, never directly by a user request.
type User struct {
	BaseModel
	Email                string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password             string  `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Name                 string  `gorm:"size:255" json:"name"`
	Plan                 *string `gorm:"size:20" json:"plan,omitempty"`
	StripeCustomerID     *string `gorm:"size:255;index" json:"-"`
	StripeSubscriptionID *string `gorm:"size:255;index" json:"-"`

	// Relations (not always preloaded)
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	UserClinics   []UserClinic   `gorm:"foreignKey:UserID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Plan      *string   `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Plan:      u.Plan,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
