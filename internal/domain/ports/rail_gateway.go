package ports

import (
	"context"
)

// Capability values reported by payout rail providers
const (
	CapabilityActive   = "active"
	CapabilityInactive = "inactive"
	CapabilityPending  = "pending"
)

// BankAccountStatus is the live capability state of a bank-transfer account.
// The rail is active only when PayoutsEnabled is true AND the transfer
// capability is active.
type BankAccountStatus struct {
	TransferCapability string
	PayoutsEnabled     bool
}

// BankRailGateway queries the bank-transfer processor for account capability.
// A lookup failure must propagate to the caller; it is never conflated with a
// lookup that returned inactive.
type BankRailGateway interface {
	GetAccountStatus(ctx context.Context, accountID string) (*BankAccountStatus, error)
}

// StablecoinRecipientStatus is the live capability state of a stablecoin
// recipient's crypto wallet
type StablecoinRecipientStatus struct {
	WalletCapability string
}

// StablecoinRailGateway queries the stablecoin processor for recipient
// capability
type StablecoinRailGateway interface {
	GetRecipientStatus(ctx context.Context, recipientID string) (*StablecoinRecipientStatus, error)
}
