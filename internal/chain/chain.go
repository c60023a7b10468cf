// Package chain defines the node collaborators the notifier pulls data from.
package chain

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the node does not know the requested wallet.
var ErrNotFound = errors.New("wallet not found")

// Wallet is the subset of wallet state used in notifications.
type Wallet struct {
	Address   string
	PublicKey string
	Balance   int64
	Username  string
}

// WalletLookup resolves wallets by public key.
type WalletLookup interface {
	WalletByPublicKey(ctx context.Context, publicKey string) (Wallet, error)
}

// DelegateLister returns the usernames of the delegates forging in the current round.
type DelegateLister interface {
	ActiveDelegates(ctx context.Context) ([]string, error)
}

// HostIdentifier names the node that emitted forger events.
type HostIdentifier interface {
	Host() string
}

// StaticHost is a HostIdentifier with a fixed value.
type StaticHost string

// Host implements HostIdentifier.
func (h StaticHost) Host() string {
	return string(h)
}
