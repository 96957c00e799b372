package catalog

import (
	"testing"

	"catalog-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	t.Run("new user has lastLogin equal to createdAt", func(t *testing.T) {
		c := newTestCatalog(t)
		u, events, err := c.AddUser(UserInput{Username: "ana", Email: "ana@example.com", Name: "Ana"})
		require.NoError(t, err)
		assert.Equal(t, u.CreatedAt, u.LastLogin)
		assert.Equal(t, []string{models.EventTypeUserCreated}, events.Types())

		got, err := c.User(u.ID)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		c := newTestCatalog(t)
		_, _, err := c.AddUser(UserInput{Username: "ana", Email: "nope"})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "email")

		u, _, err := c.AddUser(UserInput{Username: "ana", Email: "ana@example.com"})
		require.NoError(t, err)
		_, _, err = c.UpdateUser(u.ID, UserPatch{Email: ptr("still-nope")})
		assert.ErrorIs(t, err, ErrValidation)

		got, err := c.User(u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", got.Email)
	})

	t.Run("record login", func(t *testing.T) {
		c := newTestCatalog(t)
		u, _, err := c.AddUser(UserInput{Username: "ana", Email: "ana@example.com"})
		require.NoError(t, err)

		got, events, err := c.RecordLogin(u.ID)
		require.NoError(t, err)
		assert.True(t, got.LastLogin.After(u.LastLogin))
		assert.Equal(t, u.CreatedAt, got.CreatedAt)
		assert.Equal(t, []string{models.EventTypeUserUpdated, models.EventTypeActivityLogged}, events.Types())

		logs := c.ActivityLogs(u.ID)
		require.Len(t, logs, 1)
		assert.Equal(t, models.ActionLogin, logs[0].Action)
	})

	t.Run("delete cascades activity", func(t *testing.T) {
		c := newTestCatalog(t)
		ana, _, err := c.AddUser(UserInput{Username: "ana", Email: "ana@example.com"})
		require.NoError(t, err)
		bob, _, err := c.AddUser(UserInput{Username: "bob", Email: "bob@example.com"})
		require.NoError(t, err)

		for _, id := range []string{ana.ID, bob.ID, ana.ID} {
			_, _, err := c.LogActivity(ActivityInput{UserID: id, Action: models.ActionViewProduct})
			require.NoError(t, err)
		}

		_, err = c.DeleteUser(ana.ID)
		require.NoError(t, err)

		_, err = c.User(ana.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, c.ActivityLogs(ana.ID))
		assert.Len(t, c.ActivityLogs(""), 1)

		_, err = c.DeleteUser(ana.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestActivityLog(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		c := newTestCatalog(t)
		actions := []models.ActivityAction{models.ActionLogin, models.ActionViewProduct, models.ActionAddToCart}
		for _, a := range actions {
			_, _, err := c.LogActivity(ActivityInput{UserID: "u1", Username: "ana", Action: a})
			require.NoError(t, err)
		}

		logs := c.ActivityLogs("")
		require.Len(t, logs, 3)
		assert.Equal(t, models.ActionAddToCart, logs[0].Action)
		assert.Equal(t, models.ActionLogin, logs[2].Action)
		assert.True(t, logs[0].Timestamp.After(logs[1].Timestamp))
	})

	t.Run("rejects unknown action", func(t *testing.T) {
		c := newTestCatalog(t)
		_, _, err := c.LogActivity(ActivityInput{UserID: "u1", Action: "dance"})
		assert.ErrorIs(t, err, ErrValidation)

		_, _, err = c.LogActivity(ActivityInput{Action: models.ActionLogout})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, c.ActivityLogs(""))
	})
}
