package model

import "time"

// Order is a manual-payment purchase record. Approval assigns the package to
// the user and activates the subscription.
type Order struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	PackageID     string     `json:"package_id"`
	Amount        int        `json:"amount"`
	TermMonths    int        `json:"term_months"`
	PaymentMethod string     `json:"payment_method"`
	SenderNumber  string     `json:"sender_number"`
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
