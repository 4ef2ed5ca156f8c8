package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrGatewayUnavailable = errors.New("payment gateway not configured")
)

// Gateway creates a payment intent and returns the client secret the
// browser uses to complete the charge.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error)
}

// MaxAmountCents is the largest amount Stripe accepts for a charge.
const MaxAmountCents = 99_999_999

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(MaxAmountCents)
)

// AmountInCents converts a price in major units to an integer amount in
// minor units, rounding half away from zero. The result is in
// [1, MaxAmountCents].
func AmountInCents(price decimal.Decimal) (int64, error) {
	cents := price.Mul(hundred).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{api: sc}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	if amountCents <= 0 || amountCents > MaxAmountCents {
		return "", ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}
