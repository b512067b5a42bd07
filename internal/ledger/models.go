package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AIModel is a catalog entry for a billed chat model. CostMultiplier is an
// integer percentage of the base message cost (100 = 1.0x). Ids are
// sequential, never reused and never removed; retired models are
// deactivated instead.
type AIModel struct {
	ID             uint64
	Name           string
	UpstreamModel  string
	Developer      common.Address
	CostMultiplier uint64
	Active         bool
	TotalUsage     uint64
	TotalEarnings  *big.Int
}

// ModelRegistry owns the model catalog. Access is serialized by the Chain.
type ModelRegistry struct {
	models []*AIModel
}

// NewModelRegistry creates an empty catalog.
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{models: nil}
}

// Register adds a model and returns its id, starting at 0. The multiplier
// is accepted as-is without bounds checking; registration is admin-gated
// at the Chain level.
func (r *ModelRegistry) Register(name, upstream string, developer common.Address, multiplier uint64) uint64 {
	id := uint64(len(r.models))
	r.models = append(r.models, &AIModel{
		ID:             id,
		Name:           name,
		UpstreamModel:  upstream,
		Developer:      developer,
		CostMultiplier: multiplier,
		Active:         true,
		TotalUsage:     0,
		TotalEarnings:  new(big.Int),
	})
	return id
}

// get returns the live record for in-package mutation.
func (r *ModelRegistry) get(id uint64) (*AIModel, error) {
	if id >= uint64(len(r.models)) {
		return nil, ErrNotFound
	}
	return r.models[id], nil
}

// Get returns a copy of the model record.
func (r *ModelRegistry) Get(id uint64) (AIModel, error) {
	m, err := r.get(id)
	if err != nil {
		return AIModel{}, err
	}
	out := *m
	out.TotalEarnings = new(big.Int).Set(m.TotalEarnings)
	return out, nil
}

// SetActive toggles a model's availability.
func (r *ModelRegistry) SetActive(id uint64, active bool) error {
	m, err := r.get(id)
	if err != nil {
		return err
	}
	m.Active = active
	return nil
}

// RecordUsage bumps the usage counter and accrues the developer payment on
// the model's earnings accumulator. Called only from query billing.
func (r *ModelRegistry) RecordUsage(id uint64, developerPayment *big.Int) error {
	m, err := r.get(id)
	if err != nil {
		return err
	}
	m.TotalUsage++
	m.TotalEarnings.Add(m.TotalEarnings, developerPayment)
	return nil
}

// Count returns the number of registered models.
func (r *ModelRegistry) Count() uint64 {
	return uint64(len(r.models))
}

// List returns copies of all models in id order.
func (r *ModelRegistry) List() []AIModel {
	out := make([]AIModel, 0, len(r.models))
	for _, m := range r.models {
		c := *m
		c.TotalEarnings = new(big.Int).Set(m.TotalEarnings)
		out = append(out, c)
	}
	return out
}
