package repositories

import (
	"chat-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFetch(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	id, err := repository.CreateUser("alice@example.com", "alice", "hashed-secret")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("alice", user.Username)
	req.Equal("hashed-secret", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)
}

func TestUserRepository_RejectsDuplicateEmail(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("alice@example.com", "alice", "hash-1")
	req.NoError(err)

	_, err = repository.CreateUser("alice@example.com", "alice2", "hash-2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_UnknownEmail(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.GetUserByEmail("ghost@example.com")
	req.Error(err)
}
