package connection

import (
	"fmt"
	"sync"
	"time"

	"uk.co.dudmesh.nevermore/internal/model"
	"uk.co.dudmesh.nevermore/internal/store"
)

type Status int

const (
	StatusRejected Status = iota
	StatusUnlocked
)

// Outcome is the result of one evaluated attempt.
type Outcome struct {
	Status   Status
	Correct  int
	Attempts int
}

// Ledger applies the attempt state machine for directed user pairs:
// fresh -> attempting -> unlocked | throttled, where throttled expires by
// timestamp and unlocked is absorbing.
//
// All reads and writes for one pair happen under that pair's mutex, so the
// threshold check is atomic with the counter increment. Unrelated pairs do
// not contend.
type Ledger struct {
	store     *store.Store
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu    sync.Mutex
	pairs map[string]*sync.Mutex
}

func NewLedger(store *store.Store, threshold int, cooldown time.Duration) *Ledger {
	return &Ledger{
		store:     store,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		pairs:     map[string]*sync.Mutex{},
	}
}

// Attempt runs one connection attempt for the pair. The evaluate callback
// is only invoked when the attempt is actually admitted: never while a
// cooldown is active and never once the pair has unlocked.
//
// A throttled attempt returns *model.RateLimitedError and leaves the
// record untouched.
func (l *Ledger) Attempt(requester, target model.UserID, evaluate func() int) (*Outcome, error) {
	unlock := l.lockPair(requester, target)
	defer unlock()

	record, err := l.store.FetchAttempt(requester, target)
	if err != nil {
		return nil, fmt.Errorf("loading attempt record: %w", err)
	}
	if record == nil {
		record = &model.AttemptRecord{Requester: requester, Target: target}
	}

	if record.Unlocked {
		return &Outcome{Status: StatusUnlocked, Correct: model.RiddleSize, Attempts: record.Attempts}, nil
	}

	now := l.now().UTC()
	if record.CooldownUntil != nil && now.Before(*record.CooldownUntil) {
		return nil, &model.RateLimitedError{RetryAfter: record.CooldownUntil.Sub(now)}
	}

	correct := evaluate()
	record.Attempts++
	record.WindowAttempts++
	record.LastAttemptAt = &now

	outcome := &Outcome{Correct: correct, Attempts: record.Attempts}
	if correct == model.RiddleSize {
		record.Unlocked = true
		record.CooldownUntil = nil
		outcome.Status = StatusUnlocked
	} else {
		outcome.Status = StatusRejected
		if record.WindowAttempts >= l.threshold {
			until := now.Add(l.cooldown)
			record.CooldownUntil = &until
			record.WindowAttempts = 0
		}
	}

	if err := l.store.SaveAttempt(record); err != nil {
		return nil, fmt.Errorf("saving attempt record: %w", err)
	}
	return outcome, nil
}

func (l *Ledger) lockPair(requester, target model.UserID) func() {
	key := string(requester) + "\x00" + string(target)

	l.mu.Lock()
	pair, ok := l.pairs[key]
	if !ok {
		pair = &sync.Mutex{}
		l.pairs[key] = pair
	}
	l.mu.Unlock()

	pair.Lock()
	return pair.Unlock
}
