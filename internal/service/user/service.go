package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"uk.co.dudmesh.nevermore/internal/model"
	"uk.co.dudmesh.nevermore/internal/store"
)

const tokenLifetime = 24 * time.Hour

// Poet generates the riddle poem stored against a new user.
type Poet interface {
	Poem(ctx context.Context, answers []string) string
}

type service struct {
	store     *store.Store
	poet      Poet
	jwtSecret []byte
}

func New(store *store.Store, poet Poet, jwtSecret string) *service {
	return &service{store: store, poet: poet, jwtSecret: []byte(jwtSecret)}
}

// Register creates a user with their riddle and generated poem. The user
// is immutable after this point; there are no profile edits.
func (s *service) Register(ctx context.Context, params *model.RegisterUserParams) (*model.User, error) {
	if strings.TrimSpace(params.Username) == "" || params.Password == "" {
		return nil, model.ErrorInvalidUsernameOrPassword
	}
	if len(params.Questions) != model.RiddleSize || len(params.Answers) != model.RiddleSize {
		return nil, model.ErrorRiddleArity
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), 10)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		ID:           model.UserID(model.CreateID()),
		CreatedAt:    time.Now().UTC(),
		Username:     params.Username,
		PasswordHash: string(passwordHash),
		Questions:    model.StringList(params.Questions),
		Answers:      model.StringList(params.Answers),
		Poem:         s.poet.Poem(ctx, params.Answers),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the password and issues a signed session token.
func (s *service) Authenticate(username, password string) (*model.User, string, error) {
	user, err := s.store.FetchUserByUsername(username)
	if err != nil {
		return nil, "", model.ErrorInvalidUsernameOrPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", model.ErrorInvalidUsernameOrPassword
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   user.Username,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenLifetime).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("signing token: %w", err)
	}
	return user, signed, nil
}

// VerifyToken returns the username a session token was issued to.
func (s *service) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", model.ErrorInvalidUsernameOrPassword
	}
	return claims.Subject, nil
}

func (s *service) Fetch(id model.UserID) (*model.User, error) {
	return s.store.FetchUser(id)
}

func (s *service) FetchByUsername(username string) (*model.User, error) {
	return s.store.FetchUserByUsername(username)
}

// List exposes every registered user with their poem. Questions, answers
// and password hashes stay server-side.
func (s *service) List() ([]model.PublicUser, error) {
	users, err := s.store.ListUsers()
	if err != nil {
		return nil, err
	}
	public := make([]model.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	return public, nil
}
