package user

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"uk.co.dudmesh.nevermore/internal/model"
	"uk.co.dudmesh.nevermore/internal/store"
)

type fakePoet struct{}

func (fakePoet) Poem(_ context.Context, answers []string) string {
	return "a poem about " + answers[0]
}

func newTestService(t *testing.T) *service {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, fakePoet{}, "test-secret")
}

func validParams() *model.RegisterUserParams {
	return &model.RegisterUserParams{
		Username:  "raven",
		Password:  "nevermore",
		Questions: []string{"q1", "q2", "q3"},
		Answers:   []string{"sea", "kingdom", "tomb"},
	}
}

func TestRegister(t *testing.T) {
	assert := assert.New(t)
	service := newTestService(t)

	user, err := service.Register(context.Background(), validParams())
	assert.Nil(err)
	assert.NotEmpty(user.ID)
	assert.Equal("a poem about sea", user.Poem)
	assert.NotEqual("nevermore", user.PasswordHash)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := service.Register(context.Background(), validParams())
		assert.ErrorIs(err, model.ErrorDuplicateUsername)
	})

	t.Run("listed publicly without riddle", func(t *testing.T) {
		list, err := service.List()
		assert.Nil(err)
		assert.Len(list, 1)
		assert.Equal("raven", list[0].Username)
		assert.NotEmpty(list[0].Poem)
	})
}

func TestRegisterValidation(t *testing.T) {
	assert := assert.New(t)
	service := newTestService(t)

	t.Run("missing username", func(t *testing.T) {
		params := validParams()
		params.Username = "  "
		_, err := service.Register(context.Background(), params)
		assert.ErrorIs(err, model.ErrorInvalidUsernameOrPassword)
	})

	t.Run("missing password", func(t *testing.T) {
		params := validParams()
		params.Password = ""
		_, err := service.Register(context.Background(), params)
		assert.ErrorIs(err, model.ErrorInvalidUsernameOrPassword)
	})

	t.Run("wrong question arity", func(t *testing.T) {
		params := validParams()
		params.Questions = []string{"q1", "q2"}
		_, err := service.Register(context.Background(), params)
		assert.ErrorIs(err, model.ErrorRiddleArity)
	})

	t.Run("wrong answer arity", func(t *testing.T) {
		params := validParams()
		params.Answers = []string{"sea", "kingdom", "tomb", "extra"}
		_, err := service.Register(context.Background(), params)
		assert.ErrorIs(err, model.ErrorRiddleArity)
	})
}

func TestAuthenticate(t *testing.T) {
	assert := assert.New(t)
	service := newTestService(t)

	registered, err := service.Register(context.Background(), validParams())
	assert.Nil(err)

	t.Run("valid credentials", func(t *testing.T) {
		user, token, err := service.Authenticate("raven", "nevermore")
		assert.Nil(err)
		assert.Equal(registered.ID, user.ID)
		assert.NotEmpty(token)

		username, err := service.VerifyToken(token)
		assert.Nil(err)
		assert.Equal("raven", username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := service.Authenticate("raven", "evermore")
		assert.ErrorIs(err, model.ErrorInvalidUsernameOrPassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := service.Authenticate("ghost", "nevermore")
		assert.ErrorIs(err, model.ErrorInvalidUsernameOrPassword)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.VerifyToken("not-a-token")
		assert.ErrorIs(err, model.ErrorInvalidUsernameOrPassword)
	})
}
