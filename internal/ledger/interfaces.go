package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenService is the fungible platform token the chain settles against.
// Transfers are synchronous; a returned error aborts the enclosing
// operation before any ledger state is committed.
type TokenService interface {
	// Transfer moves tokens between accounts on the owner's behalf.
	Transfer(from, to common.Address, amount *big.Int) error

	// TransferFrom moves tokens out of from under the recipient's
	// allowance. Deposits pull user funds into the treasury with it.
	TransferFrom(from, to common.Address, amount *big.Int) error

	// BalanceOf returns the account's current token balance.
	BalanceOf(account common.Address) *big.Int
}

// EventPublisher receives one structured event per mutating chain
// operation. Events feed an external audit stream and are never read back
// by the chain itself.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
