package model

import "time"

// AttemptRecord tracks connection attempts for one directed
// (requester, target) pair. An attempt by A on B is independent of B on A.
//
// Attempts counts every evaluated attempt and never resets.
// WindowAttempts counts attempts since the last cooldown was armed and is
// zeroed when one is. Unlocked is absorbing: once true it is never revoked.
type AttemptRecord struct {
	Requester      UserID     `db:"Requester"`
	Target         UserID     `db:"Target"`
	Attempts       int        `db:"Attempts"`
	WindowAttempts int        `db:"WindowAttempts"`
	LastAttemptAt  *time.Time `db:"LastAttemptAt"`
	CooldownUntil  *time.Time `db:"CooldownUntil"`
	Unlocked       bool       `db:"Unlocked"`
}
