package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type UserID string

// RiddleSize is the number of question/answer pairs every user registers
// with, and the number of answers a connection attempt must carry.
const RiddleSize = 3

type RegisterUserParams struct {
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`
}

type User struct {
	ID           UserID     `db:"ID" json:"id"`
	CreatedAt    time.Time  `db:"CreatedAt" json:"created_at"`
	Username     string     `db:"Username" json:"username"`
	PasswordHash string     `db:"PasswordHash" json:"-"`
	Questions    StringList `db:"Questions" json:"-"`
	Answers      StringList `db:"Answers" json:"-"`
	Poem         string     `db:"Poem" json:"poem"`
}

// PublicUser is the projection exposed on listing endpoints. Questions and
// answers never leave the server.
type PublicUser struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Poem     string `json:"poem"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Poem: u.Poem}
}

// StringList stores an ordered list of strings as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("encoding string list: %w", err)
	}
	return string(data), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}
