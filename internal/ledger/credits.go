package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CreditLedger owns prepaid credit balances in smallest units (18
// decimals). Balances never go negative: a debit past the current balance
// is rejected and leaves the balance untouched. Access is serialized by
// the Chain; the funds-transfer ordering around deposits also lives there.
type CreditLedger struct {
	balances map[common.Address]*big.Int
}

// NewCreditLedger creates an empty credit ledger.
func NewCreditLedger() *CreditLedger {
	return &CreditLedger{balances: make(map[common.Address]*big.Int)}
}

// Balance returns a copy of the user's current balance.
func (l *CreditLedger) Balance(user common.Address) *big.Int {
	if b, ok := l.balances[user]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Credit increments the user's balance. The caller must have already
// completed the external funds transfer; crediting first is forbidden.
func (l *CreditLedger) Credit(user common.Address, amount *big.Int) {
	b, ok := l.balances[user]
	if !ok {
		b = new(big.Int)
		l.balances[user] = b
	}
	b.Add(b, amount)
}

// Debit decrements the user's balance, failing with ErrInsufficientBalance
// when the balance cannot cover the amount.
func (l *CreditLedger) Debit(user common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	b, ok := l.balances[user]
	if !ok || b.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.Sub(b, amount)
	return nil
}

// CanCover reports whether the user's balance covers amount.
func (l *CreditLedger) CanCover(user common.Address, amount *big.Int) bool {
	if amount.Sign() == 0 {
		return true
	}
	b, ok := l.balances[user]
	return ok && b.Cmp(amount) >= 0
}
