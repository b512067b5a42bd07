package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/quartzlabs/turnstile/internal/chat"
	"github.com/quartzlabs/turnstile/internal/ledger"
	"github.com/quartzlabs/turnstile/internal/observability"
)

// TokenInfo is the read-only slice of the token ledger the API exposes.
type TokenInfo interface {
	BalanceOf(account common.Address) *big.Int
	TotalSupply() *big.Int
}

// Handler handles HTTP requests.
type Handler struct {
	chain *ledger.Chain
	chat  *chat.Service
	token TokenInfo
	bus   *observability.EventBus
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(chain *ledger.Chain, chatService *chat.Service, token TokenInfo, bus *observability.EventBus) *Handler {
	return &Handler{
		chain: chain,
		chat:  chatService,
		token: token,
		bus:   bus,
	}
}

// Routes registers every endpoint on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HandleHealth)

	mux.HandleFunc("POST /api/check-eligibility", h.HandleCheckEligibility)
	mux.HandleFunc("GET /api/credits/{address}", h.HandleGetCredits)
	mux.HandleFunc("POST /api/credits", h.HandleAddCredits)

	mux.HandleFunc("GET /api/models", h.HandleListModels)
	mux.HandleFunc("POST /api/models", h.HandleRegisterModel)
	mux.HandleFunc("POST /api/models/{id}/active", h.HandleSetModelActive)
	mux.HandleFunc("GET /api/models/{id}/quote/{address}", h.HandleQuoteCost)

	mux.HandleFunc("GET /api/token/{address}", h.HandleTokenInfo)

	mux.HandleFunc("POST /api/chat", h.HandleChat)
	mux.HandleFunc("GET /api/history/{sessionId}", h.HandleHistory)
	mux.HandleFunc("DELETE /api/session/{sessionId}", h.HandleClearSession)
	mux.HandleFunc("GET /api/queries/{address}", h.HandleQueryLog)

	mux.HandleFunc("POST /api/withdraw", h.HandleWithdraw)
	mux.HandleFunc("GET /api/earnings/{address}", h.HandleEarnings)

	mux.HandleFunc("POST /api/subscriptions", h.HandleMintSubscription)
	mux.HandleFunc("POST /api/subscriptions/renew", h.HandleRenewSubscription)
	mux.HandleFunc("GET /api/subscriptions/{address}", h.HandleSubscriptionStatus)

	mux.HandleFunc("POST /api/governance/proposals", h.HandleCreateProposal)
	mux.HandleFunc("GET /api/governance/proposals", h.HandleListProposals)
	mux.HandleFunc("GET /api/governance/proposals/{id}", h.HandleGetProposal)
	mux.HandleFunc("POST /api/governance/proposals/{id}/vote", h.HandleCastVote)
	mux.HandleFunc("POST /api/governance/proposals/{id}/execute", h.HandleExecuteProposal)

	mux.HandleFunc("GET /api/events", h.HandleEvents)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type eligibilityRequest struct {
	UserAddress string `json:"userAddress"`
	ModelID     uint64 `json:"modelId"`
}

// HandleCheckEligibility answers whether a user can afford one message on
// a model right now.
func (h *Handler) HandleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := parseAddress(req.UserAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	canChat, cost, err := h.chain.CheckEligibility(user, req.ModelID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"canChat": canChat,
		"cost":    ledger.FormatAmount(cost),
	})
}

// HandleGetCredits returns a user's credit balance.
func (h *Handler) HandleGetCredits(w http.ResponseWriter, r *http.Request) {
	user, err := parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"credits": ledger.FormatAmount(h.chain.CreditBalance(user)),
	})
}

type addCreditsRequest struct {
	UserAddress string `json:"userAddress"`
	Amount      string `json:"amount"`
}

// HandleAddCredits deposits credits against a completed token transfer.
func (h *Handler) HandleAddCredits(w http.ResponseWriter, r *http.Request) {
	var req addCreditsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := parseAddress(req.UserAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := observability.WithUser(r.Context(), req.UserAddress)
	if err := h.chain.AddCredits(ctx, user, amount); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"credits": ledger.FormatAmount(h.chain.CreditBalance(user)),
	})
}

type modelView struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	UpstreamModel string `json:"upstreamModel"`
	Developer     string `json:"developer"`
	Multiplier    uint64 `json:"multiplier"`
	Active        bool   `json:"active"`
	TotalUsage    uint64 `json:"totalUsage"`
	TotalEarnings string `json:"totalEarnings"`
}

func toModelView(m ledger.AIModel) modelView {
	return modelView{
		ID:            m.ID,
		Name:          m.Name,
		UpstreamModel: m.UpstreamModel,
		Developer:     m.Developer.Hex(),
		Multiplier:    m.CostMultiplier,
		Active:        m.Active,
		TotalUsage:    m.TotalUsage,
		TotalEarnings: ledger.FormatAmount(m.TotalEarnings),
	}
}

// HandleListModels returns the model catalog.
func (h *Handler) HandleListModels(w http.ResponseWriter, _ *http.Request) {
	models := h.chain.Models()
	views := make([]modelView, 0, len(models))
	for _, m := range models {
		views = append(views, toModelView(m))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": views})
}

type registerModelRequest struct {
	AdminAddress  string `json:"adminAddress"`
	Name          string `json:"name"`
	UpstreamModel string `json:"upstreamModel"`
	Developer     string `json:"developer"`
	Multiplier    uint64 `json:"multiplier"`
}

// HandleRegisterModel adds a model to the catalog. Admin only.
func (h *Handler) HandleRegisterModel(w http.ResponseWriter, r *http.Request) {
	var req registerModelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	admin, err := parseAddress(req.AdminAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	developer, err := parseAddress(req.Developer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	id, err := h.chain.RegisterModel(r.Context(), admin, req.Name, req.UpstreamModel, developer, req.Multiplier)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]uint64{"modelId": id})
}

type setActiveRequest struct {
	AdminAddress string `json:"adminAddress"`
	Active       bool   `json:"active"`
}

// HandleSetModelActive toggles a model's availability. Admin only.
func (h *Handler) HandleSetModelActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req setActiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	admin, err := parseAddress(req.AdminAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.chain.SetModelActive(r.Context(), admin, id, req.Active); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

// HandleQuoteCost prices one message on a model for a user without touching
// any balance. Unlike eligibility checks it also quotes inactive models.
func (h *Handler) HandleQuoteCost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cost, err := h.chain.QuoteCost(user, id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"cost": ledger.FormatAmount(cost),
	})
}

// HandleTokenInfo returns an account's raw token balance and the total
// supply, both in smallest units.
func (h *Handler) HandleTokenInfo(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"balance":     h.token.BalanceOf(account).String(),
		"totalSupply": h.token.TotalSupply().String(),
	})
}

type chatRequest struct {
	UserAddress string `json:"userAddress"`
	ModelID     uint64 `json:"modelId"`
	Message     string `json:"message"`
	SessionID   string `json:"sessionId"`
}

// HandleChat runs one billed chat turn against an upstream provider.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := parseAddress(req.UserAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	ctx := observability.WithUser(r.Context(), req.UserAddress)
	logger := observability.FromContext(ctx)

	reply, err := h.chat.Send(ctx, user, req.ModelID, req.Message, req.SessionID)
	if err != nil {
		logger.Error("chat turn failed", observability.Error(err))
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"response":  reply.Content,
		"cost":      ledger.FormatAmount(reply.Cost),
		"sessionId": reply.SessionID,
		"model":     reply.ModelName,
		"provider":  reply.Provider,
	})
}

// HandleHistory returns a session's messages.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.chat.History(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// HandleClearSession removes a session's history.
func (h *Handler) HandleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.ClearSession(r.Context(), r.PathValue("sessionId")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type queryLogView struct {
	ModelID     uint64    `json:"modelId"`
	Cost        string    `json:"cost"`
	Timestamp   time.Time `json:"timestamp"`
	ContentHash string    `json:"contentHash"`
}

// HandleQueryLog returns a user's billed queries.
func (h *Handler) HandleQueryLog(w http.ResponseWriter, r *http.Request) {
	user, err := parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entries := h.chain.QueryHistory(user)
	views := make([]queryLogView, 0, len(entries))
	for _, e := range entries {
		views = append(views, queryLogView{
			ModelID:     e.ModelID,
			Cost:        ledger.FormatAmount(e.Cost),
			Timestamp:   e.Timestamp,
			ContentHash: e.ContentHash.Hex(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"queries": views})
}

type withdrawRequest struct {
	DeveloperAddress string `json:"developerAddress"`
}

// HandleWithdraw pays out a developer's accrued earnings.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	developer, err := parseAddress(req.DeveloperAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, err := h.chain.WithdrawEarnings(r.Context(), developer)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"withdrawn": ledger.FormatAmount(amount)})
}

// HandleEarnings returns a developer's withdrawable balance.
func (h *Handler) HandleEarnings(w http.ResponseWriter, r *http.Request) {
	developer, err := parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"earnings": ledger.FormatAmount(h.chain.Earnings(developer)),
	})
}

type mintSubscriptionRequest struct {
	AdminAddress string `json:"adminAddress"`
	Holder       string `json:"holder"`
	Tier         string `json:"tier"`
	DurationDays uint64 `json:"durationDays"`
}

// HandleMintSubscription issues a subscription token. Admin only.
func (h *Handler) HandleMintSubscription(w http.ResponseWriter, r *http.Request) {
	var req mintSubscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	admin, err := parseAddress(req.AdminAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	holder, err := parseAddress(req.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tier, ok := ledger.ParseTier(req.Tier)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown tier: %s", req.Tier))
		return
	}

	id, err := h.chain.MintSubscription(r.Context(), admin, holder, tier, req.DurationDays)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]uint64{"subscriptionId": id})
}

type renewSubscriptionRequest struct {
	SubscriptionID uint64 `json:"subscriptionId"`
	AdditionalDays uint64 `json:"additionalDays"`
}

// HandleRenewSubscription extends a subscription.
func (h *Handler) HandleRenewSubscription(w http.ResponseWriter, r *http.Request) {
	var req renewSubscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.chain.RenewSubscription(r.Context(), req.SubscriptionID, req.AdditionalDays); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "renewed"})
}

// HandleSubscriptionStatus reports whether a holder has a live subscription.
func (h *Handler) HandleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	holder, err := parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	active, tier := h.chain.HasActiveSubscription(holder)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active": active,
		"tier":   tier.String(),
	})
}

type createProposalRequest struct {
	Proposer    string `json:"proposer"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func parseProposalType(s string) (ledger.ProposalType, bool) {
	switch s {
	case "", "general":
		return ledger.ProposalGeneral, true
	case "parameter_change":
		return ledger.ProposalParameterChange, true
	case "model_curation":
		return ledger.ProposalModelCuration, true
	default:
		return ledger.ProposalGeneral, false
	}
}

// HandleCreateProposal opens a governance proposal.
func (h *Handler) HandleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	proposer, err := parseAddress(req.Proposer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ptype, ok := parseProposalType(req.Type)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown proposal type: %s", req.Type))
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, errors.New("title is required"))
		return
	}

	id, err := h.chain.CreateProposal(r.Context(), proposer, ptype, req.Title, req.Description)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]uint64{"proposalId": id})
}

type proposalView struct {
	ID           uint64    `json:"id"`
	Proposer     string    `json:"proposer"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ForVotes     string    `json:"forVotes"`
	AgainstVotes string    `json:"againstVotes"`
	AbstainVotes string    `json:"abstainVotes"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Executed     bool      `json:"executed"`
	Passed       bool      `json:"passed"`

	// Vote is the receipt for the voter named in the request, if any.
	Vote *voteReceipt `json:"vote,omitempty"`
}

type voteReceipt struct {
	Voter  string `json:"voter"`
	Voted  bool   `json:"voted"`
	Choice string `json:"choice,omitempty"`
}

func toProposalView(p ledger.Proposal) proposalView {
	return proposalView{
		ID:           p.ID,
		Proposer:     p.Proposer.Hex(),
		Title:        p.Title,
		Description:  p.Description,
		ForVotes:     p.ForVotes.String(),
		AgainstVotes: p.AgainstVotes.String(),
		AbstainVotes: p.AbstainVotes.String(),
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		Executed:     p.Executed,
		Passed:       p.Passed,
	}
}

// HandleListProposals returns every proposal.
func (h *Handler) HandleListProposals(w http.ResponseWriter, _ *http.Request) {
	proposals := h.chain.Proposals()
	views := make([]proposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, toProposalView(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"proposals": views})
}

// HandleGetProposal returns one proposal. A ?voter=0x... query parameter
// attaches that voter's receipt to the response.
func (h *Handler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.chain.Proposal(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	view := toProposalView(p)
	if v := r.URL.Query().Get("voter"); v != "" {
		voter, err := parseAddress(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		choice, voted, err := h.chain.VoteOf(id, voter)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		receipt := &voteReceipt{Voter: voter.Hex(), Voted: voted}
		if voted {
			receipt.Choice = choice.String()
		}
		view.Vote = receipt
	}

	writeJSON(w, http.StatusOK, view)
}

type castVoteRequest struct {
	Voter  string `json:"voter"`
	Choice string `json:"choice"`
}

// HandleCastVote records a token-weighted vote.
func (h *Handler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req castVoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	voter, err := parseAddress(req.Voter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	choice, ok := ledger.ParseVoteChoice(req.Choice)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown vote choice: %s", req.Choice))
		return
	}

	if err := h.chain.CastVote(r.Context(), voter, id, choice); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "voted"})
}

// HandleExecuteProposal records a closed proposal's outcome.
func (h *Handler) HandleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	passed, err := h.chain.ExecuteProposal(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"passed": passed})
}

// HandleEvents returns the recent audit-event tail.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": h.bus.Tail(limit)})
}

// --- helpers ---

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeLedgerError maps ledger sentinel errors onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ledger.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, ledger.ErrInsufficientBalance):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidVoteChoice),
		errors.Is(err, ledger.ErrTransferFailed):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ledger.ErrModelInactive),
		errors.Is(err, ledger.ErrNothingToWithdraw),
		errors.Is(err, ledger.ErrBelowThreshold),
		errors.Is(err, ledger.ErrVotingNotYetOpen),
		errors.Is(err, ledger.ErrVotingClosed),
		errors.Is(err, ledger.ErrAlreadyVoted),
		errors.Is(err, ledger.ErrNoVotingPower),
		errors.Is(err, ledger.ErrVotingStillOpen),
		errors.Is(err, ledger.ErrAlreadyExecuted):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
