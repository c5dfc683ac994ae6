package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/langschool-api/internal/dto"
	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/repository"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
	"github.com/noah-isme/langschool-api/pkg/export"
	"github.com/noah-isme/langschool-api/pkg/payment"
)

type paymentRepository interface {
	ListByEmail(ctx context.Context, email string) ([]models.PaymentRecord, error)
	FindByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	Create(ctx context.Context, record *models.PaymentRecord) error
}

type paymentGateway interface {
	CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error)
	GetIntent(ctx context.Context, id string) (*payment.Intent, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type receiptRenderer interface {
	RenderReceipt(r export.Receipt) ([]byte, error)
}

// PaymentConfig tunes payment behaviour.
type PaymentConfig struct {
	Currency string
	Issuer   string
}

// PaymentService records payments, requests payment intents and renders
// receipts and history exports.
type PaymentService struct {
	repo      paymentRepository
	gateway   paymentGateway
	csv       csvRenderer
	pdf       receiptRenderer
	cfg       PaymentConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, gateway paymentGateway, cfg PaymentConfig, validate *validator.Validate, logger *zap.Logger, csv csvRenderer, pdf receiptRenderer) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "Language School"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &PaymentService{repo: repo, gateway: gateway, csv: csv, pdf: pdf, cfg: cfg, validator: validate, logger: logger}
}

// List returns the payment history of email, newest first.
func (s *PaymentService) List(ctx context.Context, email string) ([]models.PaymentRecord, error) {
	records, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return records, nil
}

// Record appends a payment made by the caller after confirming with the
// provider that the transaction captured the amount in the configured
// currency. A recorded payment buys one seat through enrollment.
func (s *PaymentService) Record(ctx context.Context, actor Actor, req dto.RecordPaymentRequest) (*models.WriteResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !actor.Owns(req.Email) {
		return nil, appErrors.ErrForbidden
	}

	intent, err := s.gateway.GetIntent(ctx, req.TransactionID)
	if err != nil {
		return nil, providerError(err)
	}
	if err := verifyCapture(intent, actor, payment.ToMinorUnits(req.Amount), s.cfg.Currency); err != nil {
		s.logger.Warn("rejected unverified payment record",
			zap.String("transaction_id", req.TransactionID), zap.String("email", actor.Email), zap.String("status", intent.Status))
		return nil, err
	}

	record := &models.PaymentRecord{
		Email:         req.Email,
		CourseID:      req.CourseID,
		CartID:        req.CartID,
		CourseName:    req.CourseName,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "payment already recorded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	return models.Inserted(record.ID), nil
}

// verifyCapture checks that intent belongs to actor and captured exactly
// amountMinor in currency.
func verifyCapture(intent *payment.Intent, actor Actor, amountMinor int64, currency string) error {
	if owner, ok := intent.Metadata["email"]; ok && !actor.Owns(owner) {
		return appErrors.Clone(appErrors.ErrForbidden, "payment belongs to another user")
	}
	if !intent.Succeeded() || amountMinor <= 0 || intent.AmountMinor != amountMinor || !strings.EqualFold(intent.Currency, currency) {
		return appErrors.ErrPaymentNotCaptured
	}
	return nil
}

// CreateIntent requests a card payment intent for price and returns its
// client secret. No local state is written.
func (s *PaymentService) CreateIntent(ctx context.Context, actor Actor, req dto.PaymentIntentRequest) (*dto.PaymentIntentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "price must be greater than zero")
	}
	amount := payment.ToMinorUnits(req.Price)
	if amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "price must be greater than zero")
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountMinor: amount,
		Currency:    s.cfg.Currency,
		Email:       actor.Email,
	})
	if err != nil {
		return nil, providerError(err)
	}
	return &dto.PaymentIntentResponse{ClientSecret: intent.ClientSecret}, nil
}

// Receipt renders a PDF receipt for a payment owned by the caller.
func (s *PaymentService) Receipt(ctx context.Context, actor Actor, id string) ([]byte, string, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment")
	}
	if !actor.OwnsOrAdmin(record.Email) {
		return nil, "", appErrors.ErrForbidden
	}

	body, err := s.pdf.RenderReceipt(export.Receipt{
		Title:  "Payment Receipt",
		Issuer: s.cfg.Issuer,
		Lines: []export.ReceiptLine{
			{Label: "Receipt", Value: record.ID},
			{Label: "Student", Value: record.Email},
			{Label: "Course", Value: record.CourseName},
			{Label: "Amount", Value: formatAmount(record.Amount, s.cfg.Currency)},
			{Label: "Transaction", Value: record.TransactionID},
			{Label: "Paid at", Value: record.CreatedAt.UTC().Format(time.RFC1123)},
		},
		Footnote: "Thank you for learning with us.",
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return body, fmt.Sprintf("receipt-%s.pdf", record.ID), nil
}

// ExportCSV renders the payment history of email as CSV.
func (s *PaymentService) ExportCSV(ctx context.Context, email string) ([]byte, string, error) {
	records, err := s.List(ctx, email)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: []string{"date", "course", "amount", "currency", "transaction_id"}}
	for _, r := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"date":           r.CreatedAt.UTC().Format(time.RFC3339),
			"course":         r.CourseName,
			"amount":         strconv.FormatFloat(r.Amount, 'f', 2, 64),
			"currency":       strings.ToUpper(s.cfg.Currency),
			"transaction_id": r.TransactionID,
		})
	}
	body, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return body, "payments.csv", nil
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(currency))
}

func providerError(err error) error {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "payment intent not found")
	case errors.Is(err, payment.ErrInvalidAmount):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment amount")
	case errors.Is(err, payment.ErrDeclined):
		return appErrors.Wrap(err, appErrors.ErrPaymentNotCaptured.Code, appErrors.ErrPaymentNotCaptured.Status, "payment declined")
	default:
		return appErrors.Wrap(err, appErrors.ErrPaymentProvider.Code, appErrors.ErrPaymentProvider.Status, appErrors.ErrPaymentProvider.Message)
	}
}
