package ledger

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// VoteChoice is a voter's position on a proposal.
type VoteChoice uint8

const (
	VoteAgainst VoteChoice = iota
	VoteFor
	VoteAbstain
)

// String returns the canonical choice name.
func (c VoteChoice) String() string {
	switch c {
	case VoteAgainst:
		return "against"
	case VoteFor:
		return "for"
	case VoteAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// ParseVoteChoice parses a choice name as produced by VoteChoice.String.
func ParseVoteChoice(s string) (VoteChoice, bool) {
	switch s {
	case "against":
		return VoteAgainst, true
	case "for":
		return VoteFor, true
	case "abstain":
		return VoteAbstain, true
	default:
		return VoteAgainst, false
	}
}

// ProposalType categorizes what a proposal asks for. Execution records the
// outcome only; enacting a passed proposal is a manual, off-chain step.
type ProposalType uint8

const (
	ProposalGeneral ProposalType = iota
	ProposalParameterChange
	ProposalModelCuration
)

// Proposal is a governance action with a fixed voting window. Lifecycle:
// voting opens immediately on creation, closes implicitly once the window
// passes, and the outcome is recorded by an explicit Execute call.
type Proposal struct {
	ID           uint64
	Proposer     common.Address
	Type         ProposalType
	Title        string
	Description  string
	ForVotes     *big.Int
	AgainstVotes *big.Int
	AbstainVotes *big.Int
	StartTime    time.Time
	EndTime      time.Time
	Executed     bool
	Passed       bool

	votes map[common.Address]VoteChoice
}

// clone returns a deep copy safe to hand out.
func (p *Proposal) clone() Proposal {
	out := *p
	out.ForVotes = new(big.Int).Set(p.ForVotes)
	out.AgainstVotes = new(big.Int).Set(p.AgainstVotes)
	out.AbstainVotes = new(big.Int).Set(p.AbstainVotes)
	out.votes = nil
	return out
}

// GovernanceLedger owns the proposal table and token-weighted voting.
// Voting weight is the voter's token balance sampled at vote time, not a
// snapshot taken at proposal creation. Access is serialized by the Chain.
type GovernanceLedger struct {
	proposals []*Proposal

	token        TokenService
	treasury     common.Address
	threshold    *big.Int
	votingPeriod time.Duration
	quorumPct    uint64
	now          func() time.Time
}

// NewGovernanceLedger creates a governance ledger. Quorum is measured
// against the token balance held by the treasury address.
func NewGovernanceLedger(
	token TokenService,
	treasury common.Address,
	threshold *big.Int,
	votingPeriod time.Duration,
	quorumPct uint64,
	now func() time.Time,
) *GovernanceLedger {
	return &GovernanceLedger{
		proposals:    nil,
		token:        token,
		treasury:     treasury,
		threshold:    new(big.Int).Set(threshold),
		votingPeriod: votingPeriod,
		quorumPct:    quorumPct,
		now:          now,
	}
}

// CreateProposal opens a new proposal with voting starting immediately.
// The proposer must hold at least the proposal threshold in tokens.
func (g *GovernanceLedger) CreateProposal(
	proposer common.Address,
	ptype ProposalType,
	title, description string,
) (uint64, error) {
	if g.token.BalanceOf(proposer).Cmp(g.threshold) < 0 {
		return 0, ErrBelowThreshold
	}

	now := g.now()
	id := uint64(len(g.proposals))
	g.proposals = append(g.proposals, &Proposal{
		ID:           id,
		Proposer:     proposer,
		Type:         ptype,
		Title:        title,
		Description:  description,
		ForVotes:     new(big.Int),
		AgainstVotes: new(big.Int),
		AbstainVotes: new(big.Int),
		StartTime:    now,
		EndTime:      now.Add(g.votingPeriod),
		Executed:     false,
		Passed:       false,
		votes:        make(map[common.Address]VoteChoice),
	})

	return id, nil
}

// CastVote records voter's choice on a proposal, weighted by the voter's
// current token balance. A voter gets exactly one write-once vote per
// proposal.
func (g *GovernanceLedger) CastVote(id uint64, voter common.Address, choice VoteChoice) error {
	p, err := g.get(id)
	if err != nil {
		return err
	}

	now := g.now()
	if now.Before(p.StartTime) {
		return ErrVotingNotYetOpen
	}
	if now.After(p.EndTime) {
		return ErrVotingClosed
	}
	if _, voted := p.votes[voter]; voted {
		return ErrAlreadyVoted
	}

	weight := g.token.BalanceOf(voter)
	if weight.Sign() == 0 {
		return ErrNoVotingPower
	}

	switch choice {
	case VoteFor:
		p.ForVotes.Add(p.ForVotes, weight)
	case VoteAgainst:
		p.AgainstVotes.Add(p.AgainstVotes, weight)
	case VoteAbstain:
		p.AbstainVotes.Add(p.AbstainVotes, weight)
	default:
		return ErrInvalidVoteChoice
	}
	p.votes[voter] = choice

	return nil
}

// Execute records the final outcome of a closed proposal. Quorum compares
// the total votes cast against quorumPct percent of the treasury's own
// token balance, not total supply. A proposal passes iff quorum is met
// and for-votes strictly exceed against-votes.
func (g *GovernanceLedger) Execute(id uint64) (bool, error) {
	p, err := g.get(id)
	if err != nil {
		return false, err
	}

	if !g.now().After(p.EndTime) {
		return false, ErrVotingStillOpen
	}
	if p.Executed {
		return false, ErrAlreadyExecuted
	}

	totalVotes := new(big.Int).Add(p.ForVotes, p.AgainstVotes)
	totalVotes.Add(totalVotes, p.AbstainVotes)

	quorum := new(big.Int).Mul(g.token.BalanceOf(g.treasury), new(big.Int).SetUint64(g.quorumPct))
	quorum.Quo(quorum, big.NewInt(100))

	p.Executed = true
	p.Passed = totalVotes.Cmp(quorum) >= 0 && p.ForVotes.Cmp(p.AgainstVotes) > 0

	return p.Passed, nil
}

// VoteOf returns the recorded choice for voter on a proposal.
func (g *GovernanceLedger) VoteOf(id uint64, voter common.Address) (VoteChoice, bool, error) {
	p, err := g.get(id)
	if err != nil {
		return VoteAgainst, false, err
	}
	choice, voted := p.votes[voter]
	return choice, voted, nil
}

// Proposal returns a copy of the proposal record.
func (g *GovernanceLedger) Proposal(id uint64) (Proposal, error) {
	p, err := g.get(id)
	if err != nil {
		return Proposal{}, err
	}
	return p.clone(), nil
}

// List returns copies of all proposals in creation order.
func (g *GovernanceLedger) List() []Proposal {
	out := make([]Proposal, 0, len(g.proposals))
	for _, p := range g.proposals {
		out = append(out, p.clone())
	}
	return out
}

// Count returns the number of proposals ever created.
func (g *GovernanceLedger) Count() uint64 {
	return uint64(len(g.proposals))
}

func (g *GovernanceLedger) get(id uint64) (*Proposal, error) {
	if id >= uint64(len(g.proposals)) {
		return nil, ErrNotFound
	}
	return g.proposals[id], nil
}
