package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-agenda-server/internal/billing"
	"clinic-agenda-server/internal/middleware"
	"clinic-agenda-server/internal/utils"
)

// BillingHandler exposes the webhook endpoint and checkout-session creation.
type BillingHandler struct {
	Synchronizer *billing.Synchronizer
	Stripe       *billing.StripeClient
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(synchronizer *billing.Synchronizer, stripe *billing.StripeClient) *BillingHandler {
	return &BillingHandler{Synchronizer: synchronizer, Stripe: stripe}
}

// Webhook receives billing provider deliveries. The body is read raw so the
// signature can be verified before any JSON decoding. Successful processing
// and benign skips both answer 200 {received:true}; signature failures and
// store errors answer 400 so the provider retries.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	err = h.Synchronizer.HandleEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrSignatureVerification) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		log.Printf("billing: webhook processing failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "webhook error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// CheckoutSessionResponse carries the redirect for the billing provider's
// hosted checkout.
type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreateCheckoutSession starts a subscription checkout for the current user.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		utils.Unauthorized(c, "Not authenticated")
		return
	}

	sessionID, url, err := h.Stripe.CreateCheckoutSession(c.Request.Context(), session.UserID, session.Email)
	if err != nil {
		utils.InternalServerError(c, "Failed to create checkout session")
		return
	}

	utils.Success(c, "Checkout session created", CheckoutSessionResponse{
		SessionID: sessionID,
		URL:       url,
	})
}
