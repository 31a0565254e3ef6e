package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mailpanel/internal/model"
	"github.com/edvin/mailpanel/internal/platform"
)

// OrderInput is a user's manual-payment claim for a package purchase.
type OrderInput struct {
	PackageID     string
	TermMonths    int
	PaymentMethod string
	SenderNumber  string
	TransactionID string
}

// OrderService records package purchases and, on admin approval, assigns the
// package and activates the subscription.
type OrderService struct {
	db     DB
	logger zerolog.Logger
}

func NewOrderService(db DB, logger zerolog.Logger) *OrderService {
	return &OrderService{db: db, logger: logger.With().Str("component", "order-service").Logger()}
}

// Create files a pending order. The amount is derived from the package price,
// never taken from the request.
func (s *OrderService) Create(ctx context.Context, userID string, in OrderInput) (*model.Order, error) {
	if in.TermMonths < 1 {
		return nil, ErrValidation("term must be at least one month")
	}
	if in.PaymentMethod == "" || in.TransactionID == "" {
		return nil, ErrValidation("payment method and transaction id are required")
	}

	var price, renewPrice int
	if err := s.db.QueryRow(ctx, `SELECT price, renew_price FROM packages WHERE id = $1`, in.PackageID).Scan(&price, &renewPrice); err != nil {
		return nil, ErrNotFound("package not found")
	}

	var dupes int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE transaction_id = $1`, in.TransactionID).Scan(&dupes); err != nil {
		return nil, ErrStore("check transaction id", err)
	}
	if dupes > 0 {
		return nil, ErrValidation("transaction id already submitted")
	}

	amount := price
	if in.TermMonths > 1 {
		amount = price + renewPrice*(in.TermMonths-1)
	}

	now := time.Now()
	order := &model.Order{
		ID:            platform.NewID(),
		UserID:        userID,
		PackageID:     in.PackageID,
		Amount:        amount,
		TermMonths:    in.TermMonths,
		PaymentMethod: in.PaymentMethod,
		SenderNumber:  in.SenderNumber,
		TransactionID: in.TransactionID,
		Status:        model.OrderPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO orders (id, user_id, package_id, amount, term_months, payment_method, sender_number, transaction_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		order.ID, order.UserID, order.PackageID, order.Amount, order.TermMonths,
		order.PaymentMethod, order.SenderNumber, order.TransactionID, order.Status,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return nil, ErrStore("create order", err)
	}

	s.logger.Info().Str("order_id", order.ID).Str("user_id", userID).Int("amount", amount).Msg("order created")
	return order, nil
}

// ListByUser returns the user's own orders, newest first.
func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return s.list(ctx, `WHERE user_id = $1`, userID)
}

// ListAll returns every order. Admin only, enforced by the caller.
func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	return s.list(ctx, ``)
}

// Approve marks a pending order active, assigns its package to the user and
// activates the subscription with an expiry derived from the term.
func (s *OrderService) Approve(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderPending {
		return nil, ErrValidation("only pending orders can be approved")
	}

	now := time.Now()
	expiry := now.AddDate(0, order.TermMonths, 0)
	order.Status = model.OrderActive
	order.ExpiryDate = &expiry
	order.UpdatedAt = now

	_, err = s.db.Exec(ctx,
		`UPDATE orders SET status = $1, expiry_date = $2, updated_at = $3 WHERE id = $4`,
		order.Status, order.ExpiryDate, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return nil, ErrStore("update order", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE users SET package_id = $1, subscription_status = $2, updated_at = $3 WHERE id = $4`,
		order.PackageID, model.SubscriptionActive, now, order.UserID,
	)
	if err != nil {
		return nil, ErrStore("assign package", err)
	}

	s.logger.Info().Str("order_id", order.ID).Str("user_id", order.UserID).
		Str("package_id", order.PackageID).Time("expiry", expiry).Msg("order approved")
	return order, nil
}

// Reject marks a pending order rejected. The user's plan is untouched.
func (s *OrderService) Reject(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderPending {
		return nil, ErrValidation("only pending orders can be rejected")
	}

	order.Status = model.OrderRejected
	order.UpdatedAt = time.Now()

	_, err = s.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		order.Status, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return nil, ErrStore("update order", err)
	}

	s.logger.Info().Str("order_id", order.ID).Msg("order rejected")
	return order, nil
}

func (s *OrderService) get(ctx context.Context, orderID string) (*model.Order, error) {
	var o model.Order
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, package_id, amount, term_months, payment_method, sender_number, transaction_id, status, expiry_date, created_at, updated_at
		 FROM orders WHERE id = $1`, orderID,
	).Scan(&o.ID, &o.UserID, &o.PackageID, &o.Amount, &o.TermMonths, &o.PaymentMethod,
		&o.SenderNumber, &o.TransactionID, &o.Status, &o.ExpiryDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound("order not found")
	}
	return &o, nil
}

func (s *OrderService) list(ctx context.Context, where string, args ...any) ([]model.Order, error) {
	query := `SELECT id, user_id, package_id, amount, term_months, payment_method, sender_number, transaction_id, status, expiry_date, created_at, updated_at
		 FROM orders `
	if where != "" {
		query += where + " "
	}
	query += `ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, ErrStore("list orders", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.PackageID, &o.Amount, &o.TermMonths, &o.PaymentMethod,
			&o.SenderNumber, &o.TransactionID, &o.Status, &o.ExpiryDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, ErrStore("scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrStore("iterate orders", err)
	}
	return orders, nil
}
