package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"uk.co.dudmesh.nevermore/internal/model"
)

// Store is the single shared persistence layer: registered users, directed
// attempt records and the append-only message log all live in one sqlite
// database. Writes per pair are serialised by the callers; sqlite itself
// serialises the physical appends, which keeps message IDs monotonic.
type Store struct {
	db *sqlx.DB
}

func New(databasePath string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", "file:"+databasePath+"?cache=shared&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sqlite permits a single writer; a second pooled connection would turn
	// concurrent appends into "database is locked" errors.
	db.SetMaxOpenConns(1)

	store := &Store{db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`create table if not exists user(
		ID           text not null primary key,
		CreatedAt    DATETIME not null,
		Username     text not null unique,
		PasswordHash text not null,
		Questions    text not null,
		Answers      text not null,
		Poem         text not null
	)`)
	if err != nil {
		return fmt.Errorf("creating user table: %w", err)
	}

	_, err = s.db.Exec(`create table if not exists attempt(
		Requester      text not null,
		Target         text not null,
		Attempts       integer not null default 0,
		WindowAttempts integer not null default 0,
		LastAttemptAt  DATETIME null,
		CooldownUntil  DATETIME null,
		Unlocked       tinyint not null default 0,
		primary key(Requester, Target)
	)`)
	if err != nil {
		return fmt.Errorf("creating attempt table: %w", err)
	}

	_, err = s.db.Exec(`create table if not exists message(
		ID        integer primary key autoincrement,
		Sender    text not null,
		Recipient text not null,
		Content   text not null,
		Timestamp DATETIME not null
	)`)
	if err != nil {
		return fmt.Errorf("creating message table: %w", err)
	}

	return nil
}

func (s *Store) CreateUser(user *model.User) error {
	res, err := s.db.NamedExec(`insert into user
		(ID, CreatedAt, Username, PasswordHash, Questions, Answers, Poem)
		values(:ID, :CreatedAt, :Username, :PasswordHash, :Questions, :Answers, :Poem)`, user)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return model.ErrorDuplicateUsername
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	} else if rows != 1 {
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}
	return nil
}

func (s *Store) FetchUser(id model.UserID) (*model.User, error) {
	user := &model.User{}
	err := s.db.Get(user, `select * from user where ID = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrorUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return user, nil
}

func (s *Store) FetchUserByUsername(username string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Get(user, `select * from user where Username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrorUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user by username: %w", err)
	}
	return user, nil
}

func (s *Store) ListUsers() ([]model.User, error) {
	users := []model.User{}
	if err := s.db.Select(&users, `select * from user order by CreatedAt, ID`); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// FetchAttempt returns the record for the directed pair, or nil when no
// attempt has been made yet. Records are created lazily on first save.
func (s *Store) FetchAttempt(requester, target model.UserID) (*model.AttemptRecord, error) {
	record := &model.AttemptRecord{}
	err := s.db.Get(record, `select * from attempt where Requester = ? and Target = ?`, requester, target)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching attempt record: %w", err)
	}
	return record, nil
}

func (s *Store) SaveAttempt(record *model.AttemptRecord) error {
	_, err := s.db.NamedExec(`insert into attempt
		(Requester, Target, Attempts, WindowAttempts, LastAttemptAt, CooldownUntil, Unlocked)
		values(:Requester, :Target, :Attempts, :WindowAttempts, :LastAttemptAt, :CooldownUntil, :Unlocked)
		on conflict(Requester, Target) do update set
			Attempts = excluded.Attempts,
			WindowAttempts = excluded.WindowAttempts,
			LastAttemptAt = excluded.LastAttemptAt,
			CooldownUntil = excluded.CooldownUntil,
			Unlocked = excluded.Unlocked`, record)
	if err != nil {
		return fmt.Errorf("saving attempt record: %w", err)
	}
	return nil
}

// PairUnlocked reports whether either direction of the pair has unlocked,
// mirroring the symmetric connection a successful riddle answer creates.
func (s *Store) PairUnlocked(a, b model.UserID) (bool, error) {
	var count int
	err := s.db.Get(&count, `select count(*) from attempt
		where Unlocked = 1
		and ((Requester = ? and Target = ?) or (Requester = ? and Target = ?))`,
		a, b, b, a)
	if err != nil {
		return false, fmt.Errorf("checking pair unlock: %w", err)
	}
	return count > 0, nil
}

// Partners lists the users the given user holds an unlocked connection
// with, in either direction.
func (s *Store) Partners(id model.UserID) ([]model.User, error) {
	users := []model.User{}
	err := s.db.Select(&users, `select distinct u.* from user u
		join attempt a on a.Unlocked = 1
			and ((a.Requester = ? and a.Target = u.ID) or (a.Target = ? and a.Requester = u.ID))
		order by u.Username`, id, id)
	if err != nil {
		return nil, fmt.Errorf("listing partners: %w", err)
	}
	return users, nil
}

// AppendMessage inserts the message and fills in its store-assigned ID.
func (s *Store) AppendMessage(message *model.Message) error {
	res, err := s.db.NamedExec(`insert into message
		(Sender, Recipient, Content, Timestamp)
		values(:Sender, :Recipient, :Content, :Timestamp)`, message)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting message id: %w", err)
	}
	message.ID = id
	return nil
}

// History returns every message of the unordered pair, oldest first.
// Timestamp ascending, message ID as tie-break.
func (s *Store) History(usernameA, usernameB string) ([]model.Message, error) {
	messages := []model.Message{}
	err := s.db.Select(&messages, `select * from message
		where (Sender = ? and Recipient = ?) or (Sender = ? and Recipient = ?)
		order by Timestamp, ID`,
		usernameA, usernameB, usernameB, usernameA)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	return messages, nil
}
