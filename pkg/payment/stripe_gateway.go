package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway talks to Stripe through a dedicated client rather than the
// package-level globals.
type StripeGateway struct {
	client *client.API
}

// NewStripeGateway creates a gateway for the given secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{client: sc}
}

// NewStripeGatewayWithBackends builds a gateway on explicit backends, used to point at a stub server.
func NewStripeGatewayWithBackends(secretKey string, backends *stripe.Backends) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeGateway{client: sc}
}

// CreateIntent creates a card payment intent and returns its client secret.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.AmountMinor <= 0 {
		return nil, ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinor),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
		params.AddMetadata("email", req.Email)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return nil, g.mapError(err)
	}
	return toIntent(pi), nil
}

// GetIntent fetches an intent so checkout can confirm it was captured.
func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.client.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, g.mapError(err)
	}
	return toIntent(pi), nil
}

// Refund returns the full captured amount of an intent.
func (g *StripeGateway) Refund(ctx context.Context, intentID, reason string) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String("refund-" + intentID)

	r, err := g.client.Refunds.New(params)
	if err != nil {
		return nil, g.mapError(err)
	}
	refund := &Refund{ID: r.ID, Status: string(r.Status), IntentID: intentID}
	return refund, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}

// mapError keeps stripe types out of the service layer.
func (g *StripeGateway) mapError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%w: %s", ErrNotFound, stripeErr.Msg)
		case stripeErr.Code == stripe.ErrorCodeCardDeclined:
			return fmt.Errorf("%w: %s", ErrDeclined, stripeErr.Msg)
		case stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %s", ErrProviderDown, stripeErr.Msg)
		}
	}
	return fmt.Errorf("stripe: %w", err)
}
