package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langschool-api/internal/dto"
	"github.com/noah-isme/langschool-api/internal/service"
	"github.com/noah-isme/langschool-api/pkg/response"
)

// PaymentHandler exposes payment history, intents and checkout.
type PaymentHandler struct {
	payments *service.PaymentService
	checkout *service.CheckoutService
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(payments *service.PaymentService, checkout *service.CheckoutService) *PaymentHandler {
	return &PaymentHandler{payments: payments, checkout: checkout}
}

// List godoc
// @Summary Payment history
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param email query string true "Payer email"
// @Success 200 {array} models.PaymentRecord
// @Failure 403 {object} response.ErrorBody
// @Router /payment [get]
func (h *PaymentHandler) List(c *gin.Context) {
	records, err := h.payments.List(c.Request.Context(), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Record godoc
// @Summary Record payment
// @Description Stores the payment once the provider confirms the transaction captured the amount
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RecordPaymentRequest true "Payment"
// @Success 201 {object} models.WriteResult
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /payment [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.payments.Record(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Receipt godoc
// @Summary Download receipt
// @Tags Payments
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /payment/receipt/{id} [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	body, filename, err := h.payments.Receipt(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/pdf", body)
}

// Export godoc
// @Summary Export payment history
// @Tags Payments
// @Produce text/csv
// @Security BearerAuth
// @Param email query string true "Payer email"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorBody
// @Router /payment/export [get]
func (h *PaymentHandler) Export(c *gin.Context) {
	body, filename, err := h.payments.ExportCSV(c.Request.Context(), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "text/csv; charset=utf-8", body)
}

// CreateIntent godoc
// @Summary Create payment intent
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PaymentIntentRequest true "Price"
// @Success 200 {object} dto.PaymentIntentResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 502 {object} response.ErrorBody
// @Router /create-payment-intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.PaymentIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.payments.CreateIntent(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Checkout godoc
// @Summary Complete purchase
// @Description Verifies the captured intent, then takes a seat, records the payment and clears the cart item in one transaction
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CheckoutRequest true "Checkout"
// @Success 200 {object} models.PaymentRecord
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.checkout.Checkout(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}
