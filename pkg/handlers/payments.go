package handlers

import (
	"net/http"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/middleware"
	"picotask-rush-backend/pkg/models"
	"picotask-rush-backend/pkg/payments"
	"picotask-rush-backend/pkg/utils"
)

// PaymentHandler serves the payment workflow routes.
type PaymentHandler struct {
	config  *config.Config
	store   database.Store
	intents payments.IntentCreator
}

// NewPaymentHandler creates the payment handler.
func NewPaymentHandler(cfg *config.Config, store database.Store, intents payments.IntentCreator) *PaymentHandler {
	return &PaymentHandler{config: cfg, store: store, intents: intents}
}

// CreateIntent handles POST /create-payment-intent (authenticated). The
// price arrives in major units and is scaled to minor units before the
// processor call. A missing or sub-minimum amount is a hard 400; a processor
// failure is a 502 so clients can tell "not charged" from "not saved".
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.RequireIdentity(w, r); !ok {
		return
	}

	var req models.IntentRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if req.Price == nil {
		utils.WriteBadRequestResponse(w, "Invalid payment amount")
		return
	}

	amount := payments.ToMinorUnits(*req.Price)
	if err := payments.ValidateAmount(amount); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid payment amount")
		return
	}

	clientSecret, err := h.intents.CreateIntent(r.Context(), amount)
	if err != nil {
		utils.WriteBadGatewayResponse(w, "Payment processor error")
		return
	}

	utils.WriteSuccessResponse(w, models.IntentResponse{ClientSecret: clientSecret})
}

// RecordPayment handles POST /payment (taskCreator only). Pure append: the
// record is not validated against any prior intent. A caller with the
// creator role could record an arbitrary payment; that trust boundary is
// deliberate and documented, not silently hardened here.
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.RequireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if req.Amount <= 0 {
		utils.WriteBadRequestResponse(w, "Amount must be positive")
		return
	}

	payment := &models.Payment{
		CreatorEmail: identity.Email,
		Amount:       req.Amount,
		Currency:     req.Currency,
	}
	if err := h.store.CreatePayment(r.Context(), payment); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to record payment")
		return
	}
	utils.WriteCreatedResponse(w, payment)
}

// ListPayments handles GET /payment (taskCreator only).
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	paymentList, err := h.store.ListPayments(r.Context())
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list payments")
		return
	}
	utils.WriteSuccessResponse(w, paymentList)
}
