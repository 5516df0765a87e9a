package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrorInvalidUsernameOrPassword = errors.New("invalid username or password")
var ErrorUserNotFound = errors.New("user not found")
var ErrorDuplicateUsername = errors.New("username already taken")
var ErrorRiddleArity = errors.New("exactly three questions and three answers are required")
var ErrorAnswerArity = errors.New("exactly three answers are required")
var ErrorEmptyMessage = errors.New("message content is empty")
var ErrorNotConnected = errors.New("no connection between users")

// RateLimitedError is returned while a cooldown is active. RetryAfter is
// always a positive duration.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("cooldown active, try again in %d seconds", e.RetryAfterSeconds())
}

// RetryAfterSeconds rounds the remaining time up to whole seconds so a
// client countdown never displays zero while the cooldown still holds.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
