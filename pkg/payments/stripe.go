package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// ErrInvalidAmount rejects intent requests whose amount is missing or below
// the processor's minimum charge unit. This is a hard error, not a silent
// empty response.
var ErrInvalidAmount = errors.New("invalid payment amount")

// minimumChargeAmount is the smallest chargeable amount in minor units.
const minimumChargeAmount = 1

// IntentCreator creates a charge intent with the payment processor and
// returns the client secret the frontend confirms against.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64) (clientSecret string, err error)
}

// StripeClient implements IntentCreator against the Stripe API.
type StripeClient struct {
	api *client.API
}

// NewStripeClient builds a Stripe-backed intent creator.
func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

func (c *StripeClient) CreateIntent(ctx context.Context, amount int64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return intent.ClientSecret, nil
}

// ToMinorUnits scales a major-unit price (e.g. dollars) to minor units
// (cents) without float drift.
func ToMinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).IntPart()
}

// ValidateAmount checks an already-scaled amount against the processor
// minimum.
func ValidateAmount(amount int64) error {
	if amount < minimumChargeAmount {
		return ErrInvalidAmount
	}
	return nil
}
