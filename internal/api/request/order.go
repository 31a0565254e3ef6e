package request

type CreateOrder struct {
	PackageID     string `json:"package_id" validate:"required"`
	TermMonths    int    `json:"term_months" validate:"required,min=1,max=36"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=bkash nagad rocket bank"`
	SenderNumber  string `json:"sender_number" validate:"max=20"`
	TransactionID string `json:"transaction_id" validate:"required,max=64"`
}
