package models

import "time"

// Payment is a completed charge recorded by a creator. It is not referentially
// tied to the payment intent that preceded it; the linkage is convention only.
type Payment struct {
	ID           string    `json:"id" db:"id"`
	CreatorEmail string    `json:"creator_email" db:"creator_email"`
	Amount       int64     `json:"amount" db:"amount"` // minor currency units
	Currency     string    `json:"currency" db:"currency"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IntentRequest is the body accepted by POST /create-payment-intent.
// Price is in major currency units.
type IntentRequest struct {
	Price *float64 `json:"price"`
}

// IntentResponse carries the processor's client secret back to the caller.
type IntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}
