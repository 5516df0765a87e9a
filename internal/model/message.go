package model

import "time"

// Message is one entry in the append-only log of a user pair. Messages are
// never edited or deleted; IDs are assigned by the store and increase
// monotonically, which makes them the tie-break for identical timestamps.
type Message struct {
	ID        int64     `db:"ID" json:"id"`
	Sender    string    `db:"Sender" json:"sender"`
	Recipient string    `db:"Recipient" json:"recipient"`
	Content   string    `db:"Content" json:"content"`
	Timestamp time.Time `db:"Timestamp" json:"timestamp"`
}
