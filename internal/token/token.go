// Package token provides the in-process fungible platform token the
// ledger settles deposits, payouts and voting weight against. It mirrors
// the ERC-20 balance/allowance model: plain transfers move an owner's own
// funds, pull-style transfers spend a recipient's allowance.
package token

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientFunds indicates the sender's balance cannot cover the transfer.
	ErrInsufficientFunds = errors.New("insufficient token balance")

	// ErrInsufficientAllowance indicates the recipient's allowance cannot cover the pull.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrInvalidAmount indicates a nil or negative amount.
	ErrInvalidAmount = errors.New("invalid token amount")
)

// Ledger is an in-memory fungible token ledger. It carries its own lock:
// unlike the chain's stores it is read concurrently (voting weight,
// balance displays) outside the chain mutex.
type Ledger struct {
	mu          sync.RWMutex
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	totalSupply *big.Int
}

// New creates an empty token ledger.
func New() *Ledger {
	return &Ledger{
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		totalSupply: new(big.Int),
	}
}

// Mint credits newly issued tokens to an account.
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.creditLocked(to, amount)
	l.totalSupply.Add(l.totalSupply, amount)
	return nil
}

// BalanceOf returns a copy of the account's balance.
func (l *Ledger) BalanceOf(account common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if b, ok := l.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// TotalSupply returns a copy of the minted supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.totalSupply)
}

// Transfer moves tokens from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moveLocked(from, to, amount)
}

// Approve grants spender the right to pull up to amount from owner.
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[common.Address]*big.Int)
	}
	l.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns how much spender may still pull from owner.
func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if a, ok := l.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

// TransferFrom pulls tokens out of from on the recipient's allowance and
// decrements that allowance. Deposits use it to pull user funds into the
// treasury.
func (l *Ledger) TransferFrom(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	allowance, ok := l.allowances[from][to]
	if !ok || allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}

	if err := l.moveLocked(from, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

func (l *Ledger) moveLocked(from, to common.Address, amount *big.Int) error {
	b, ok := l.balances[from]
	if !ok || b.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	b.Sub(b, amount)
	l.creditLocked(to, amount)
	return nil
}

func (l *Ledger) creditLocked(to common.Address, amount *big.Int) {
	b, ok := l.balances[to]
	if !ok {
		b = new(big.Int)
		l.balances[to] = b
	}
	b.Add(b, amount)
}
