package model

// Domain lifecycle statuses. The DNS verifier moves domains from Pending DNS
// to Verified/Active; suspension is an operator action.
const (
	DomainStatusPendingDNS = "Pending DNS"
	DomainStatusVerified   = "Verified"
	DomainStatusActive     = "Active"
	DomainStatusSuspended  = "Suspended"
)

// Subscription statuses on users.
const (
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
	SubscriptionTrial     = "trial"
)

// Order statuses.
const (
	OrderPending  = "pending"
	OrderActive   = "active"
	OrderRejected = "rejected"
	OrderExpired  = "expired"
)

// User roles.
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleSupport = "support"
)
