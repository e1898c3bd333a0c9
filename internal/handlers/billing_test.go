package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v78"

	"clinic-agenda-server/internal/billing"
)

const webhookTestSecret = "whsec_handler_test"

func signBody(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type recordingUserStore struct {
	activated map[string][2]string // userID -> {customerID, subscriptionID}
	cleared   []string
}

func newRecordingUserStore() *recordingUserStore {
	return &recordingUserStore{activated: make(map[string][2]string)}
}

func (r *recordingUserStore) ActivatePlan(_ context.Context, userID, customerID, subscriptionID string) error {
	r.activated[userID] = [2]string{customerID, subscriptionID}
	return nil
}

func (r *recordingUserStore) DeactivatePlan(_ context.Context, userID string) error {
	r.cleared = append(r.cleared, userID)
	return nil
}

func (r *recordingUserStore) AttachCustomer(_ context.Context, userID, customerID string) error {
	r.activated[userID] = [2]string{customerID, ""}
	return nil
}

type memoryLedger struct{ seen map[string]bool }

func (m *memoryLedger) Seen(_ context.Context, eventID string) (bool, error) {
	return m.seen[eventID], nil
}

func (m *memoryLedger) MarkProcessed(_ context.Context, eventID, _ string) error {
	m.seen[eventID] = true
	return nil
}

type nopResolver struct{}

func (nopResolver) Subscription(_ context.Context, id string) (*stripe.Subscription, error) {
	return nil, fmt.Errorf("no such subscription %s", id)
}

func newWebhookRouter(users *recordingUserStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	synchronizer := billing.NewSynchronizer(users, &memoryLedger{seen: map[string]bool{}}, nopResolver{}, webhookTestSecret)
	handler := NewBillingHandler(synchronizer, nil)

	r := gin.New()
	r.POST("/api/billing/webhook", handler.Webhook)
	return r
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	users := newRecordingUserStore()
	r := newWebhookRouter(users)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","client_reference_id":"user-1","customer":"cus_1","subscription":"sub_1"}}}`)
	w := postWebhook(r, payload, signBody(payload, "whsec_other"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, users.activated, "no mutation on signature failure")
}

func TestWebhookAcknowledgesCheckoutCompleted(t *testing.T) {
	users := newRecordingUserStore()
	r := newWebhookRouter(users)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","client_reference_id":"user-1","customer":"cus_1","subscription":"sub_1"}}}`)
	w := postWebhook(r, payload, signBody(payload, webhookTestSecret))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body["received"])

	assert.Equal(t, [2]string{"cus_1", "sub_1"}, users.activated["user-1"])
}

func TestWebhookAcknowledgesUnknownEventType(t *testing.T) {
	users := newRecordingUserStore()
	r := newWebhookRouter(users)

	payload := []byte(`{"id":"evt_2","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)
	w := postWebhook(r, payload, signBody(payload, webhookTestSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, users.activated)
}

func TestWebhookAcknowledgesUnmappableEvent(t *testing.T) {
	users := newRecordingUserStore()
	r := newWebhookRouter(users)

	// Missing userId: skipped but still acknowledged so the provider does
	// not retry forever.
	payload := []byte(`{"id":"evt_3","type":"checkout.session.completed","data":{"object":{"id":"cs_2","customer":"cus_1","subscription":"sub_1"}}}`)
	w := postWebhook(r, payload, signBody(payload, webhookTestSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, users.activated)
}
