package connection

import (
	"context"
	"fmt"

	"uk.co.dudmesh.nevermore/internal/model"
	"uk.co.dudmesh.nevermore/internal/poet"
	"uk.co.dudmesh.nevermore/internal/store"
)

// Poet supplies the flavour text around an attempt. Implementations fall
// back to canned verse internally, so these never fail a request.
type Poet interface {
	Cryptic(ctx context.Context, answers []string) string
	Feedback(tier poet.FeedbackTier) string
}

// Result is what a connection attempt reports back to the client.
type Result struct {
	Success        bool   `json:"success"`
	CorrectAnswers int    `json:"correct_answers"`
	Message        string `json:"message"`
	CrypticMessage string `json:"cryptic_message"`
}

// Gate orchestrates a single connection attempt: input shape, identity
// resolution, cooldown, evaluation and the ledger transition.
type Gate struct {
	store  *store.Store
	ledger *Ledger
	poet   Poet
}

func NewGate(store *store.Store, ledger *Ledger, poet Poet) *Gate {
	return &Gate{store: store, ledger: ledger, poet: poet}
}

// Attempt evaluates the requester's answers against the target's riddle.
// The only state it mutates is the attempt ledger; no message or other
// record is created here.
func (g *Gate) Attempt(ctx context.Context, requesterUsername, targetUsername string, answers []string) (*Result, error) {
	if len(answers) != model.RiddleSize {
		return nil, model.ErrorAnswerArity
	}

	requester, err := g.store.FetchUserByUsername(requesterUsername)
	if err != nil {
		return nil, fmt.Errorf("resolving requester: %w", err)
	}
	target, err := g.store.FetchUserByUsername(targetUsername)
	if err != nil {
		return nil, fmt.Errorf("resolving target: %w", err)
	}

	outcome, err := g.ledger.Attempt(requester.ID, target.ID, func() int {
		return Evaluate(answers, target.Answers)
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		CorrectAnswers: outcome.Correct,
		CrypticMessage: g.poet.Cryptic(ctx, answers),
	}
	if outcome.Status == StatusUnlocked {
		result.Success = true
		result.Message = "Connection successful! You can now chat."
	} else {
		result.Message = g.poet.Feedback(feedbackTier(outcome.Correct))
	}
	return result, nil
}

// feedbackTier maps closeness to the tone the poet should strike: one away
// from success earns encouragement, anything less gets the cold shoulder.
func feedbackTier(correct int) poet.FeedbackTier {
	if correct >= model.RiddleSize-1 {
		return poet.TierEncouraging
	}
	return poet.TierDiscouraging
}
