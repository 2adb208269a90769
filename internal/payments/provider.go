package payments

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Intent is an opaque charge intent issued by the payment provider. The
// ID doubles as the paymentReference on the appointment ledger.
type Intent struct {
	ID           string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int    `json:"amount"`
	Currency     string `json:"currency"`
}

type Provider interface {
	CreateIntent(ctx context.Context, amount int, currency, appointmentID string) (Intent, error)
}

// SyntheticProvider issues locally generated intents. It stands in for a
// real gateway in development and tests; outcome events still arrive via
// the signed webhook.
type SyntheticProvider struct{}

func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{}
}

func (p *SyntheticProvider) CreateIntent(ctx context.Context, amount int, currency, appointmentID string) (Intent, error) {
	return Intent{
		ID:           "pi_" + primitive.NewObjectID().Hex(),
		ClientSecret: uuid.NewString(),
		Amount:       amount,
		Currency:     currency,
	}, nil
}
