package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
)

// missingID is shaped like a Mongo ObjectID so every driver treats it as a
// well-formed id that matches nothing.
const missingID = "5f1d7f0b2c9a4e0012345678"

func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func strPtr(s string) *string { return &s }

func idsOfUsers(users []*domain.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func idsOfHobbies(hobbies []*domain.Hobby) []string {
	out := make([]string, len(hobbies))
	for i, h := range hobbies {
		out[i] = h.ID
	}
	return out
}

// only keeps the ids of got that appear in want, preserving got's order.
func only(got, want []string) []string {
	keep := map[string]bool{}
	for _, id := range want {
		keep[id] = true
	}
	out := []string{}
	for _, id := range got {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}

func testUserRepository(t *testing.T, users domain.UserRepository) {
	ctx := context.Background()

	t.Run("create assigns id and empty hobbies", func(t *testing.T) {
		u := &domain.User{Name: uniqueName("ada")}
		require.NoError(t, users.Create(ctx, u))
		assert.NotEmpty(t, u.ID)
		assert.Empty(t, u.Hobbies)

		got, err := users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Name, got.Name)
		assert.NotNil(t, got.Hobbies)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		name := uniqueName("dup")
		require.NoError(t, users.Create(ctx, &domain.User{Name: name}))
		err := users.Create(ctx, &domain.User{Name: name})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("get missing user", func(t *testing.T) {
		_, err := users.GetByID(ctx, missingID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		var created []string
		for i := 0; i < 3; i++ {
			u := &domain.User{Name: uniqueName("ord")}
			require.NoError(t, users.Create(ctx, u))
			created = append(created, u.ID)
		}

		all, err := users.List(ctx, domain.Page{})
		require.NoError(t, err)
		assert.Equal(t, created, only(idsOfUsers(all), created))
	})

	t.Run("list honours limit", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			require.NoError(t, users.Create(ctx, &domain.User{Name: uniqueName("lim")}))
		}
		page, err := users.List(ctx, domain.Page{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, page, 1)

		all, err := users.List(ctx, domain.Page{})
		require.NoError(t, err)
		rest, err := users.List(ctx, domain.Page{Offset: 1})
		require.NoError(t, err)
		assert.Len(t, rest, len(all)-1)
	})

	t.Run("get many skips unknown ids", func(t *testing.T) {
		u := &domain.User{Name: uniqueName("many")}
		require.NoError(t, users.Create(ctx, u))

		got, err := users.GetMany(ctx, []string{u.ID, missingID})
		require.NoError(t, err)
		assert.Equal(t, []string{u.ID}, idsOfUsers(got))

		none, err := users.GetMany(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update returns the record after the update", func(t *testing.T) {
		u := &domain.User{Name: uniqueName("old")}
		require.NoError(t, users.Create(ctx, u))

		newName := uniqueName("new")
		got, err := users.Update(ctx, u.ID, domain.UpdateUserInput{Name: strPtr(newName)})
		require.NoError(t, err)
		assert.Equal(t, newName, got.Name)

		// The old name is free again.
		require.NoError(t, users.Create(ctx, &domain.User{Name: u.Name}))
	})

	t.Run("update to a taken name conflicts", func(t *testing.T) {
		a := &domain.User{Name: uniqueName("taken")}
		b := &domain.User{Name: uniqueName("other")}
		require.NoError(t, users.Create(ctx, a))
		require.NoError(t, users.Create(ctx, b))

		_, err := users.Update(ctx, b.ID, domain.UpdateUserInput{Name: strPtr(a.Name)})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("update missing user", func(t *testing.T) {
		_, err := users.Update(ctx, missingID, domain.UpdateUserInput{Name: strPtr(uniqueName("ghost"))})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("add hobby is idempotent and remove is a no-op when absent", func(t *testing.T) {
		u := &domain.User{Name: uniqueName("refs")}
		require.NoError(t, users.Create(ctx, u))

		h1, h2 := "5f1d7f0b2c9a4e00000000a1", "5f1d7f0b2c9a4e00000000a2"
		require.NoError(t, users.AddHobby(ctx, u.ID, h1))
		require.NoError(t, users.AddHobby(ctx, u.ID, h2))
		require.NoError(t, users.AddHobby(ctx, u.ID, h1))

		got, err := users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{h1, h2}, got.Hobbies)

		require.NoError(t, users.RemoveHobby(ctx, u.ID, h1))
		require.NoError(t, users.RemoveHobby(ctx, u.ID, h1))

		got, err = users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{h2}, got.Hobbies)
	})

	t.Run("hobby refs on missing user", func(t *testing.T) {
		assert.ErrorIs(t, users.AddHobby(ctx, missingID, missingID), domain.ErrNotFound)
		assert.ErrorIs(t, users.RemoveHobby(ctx, missingID, missingID), domain.ErrNotFound)
	})

	t.Run("delete returns the removed record", func(t *testing.T) {
		u := &domain.User{Name: uniqueName("gone")}
		require.NoError(t, users.Create(ctx, u))
		hobbyID := "5f1d7f0b2c9a4e00000000b1"
		require.NoError(t, users.AddHobby(ctx, u.ID, hobbyID))

		deleted, err := users.DeleteByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Name, deleted.Name)
		assert.Equal(t, []string{hobbyID}, deleted.Hobbies)

		_, err = users.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = users.DeleteByID(ctx, u.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func testHobbyRepository(t *testing.T, hobbies domain.HobbyRepository) {
	ctx := context.Background()
	owner := "5f1d7f0b2c9a4e00000000c1"

	newHobby := func(t *testing.T) *domain.Hobby {
		h := &domain.Hobby{
			Name:         uniqueName("chess"),
			PassionLevel: domain.PassionHigh,
			Year:         2001,
			UserID:       owner,
		}
		require.NoError(t, hobbies.Create(ctx, h))
		require.NotEmpty(t, h.ID)
		return h
	}

	t.Run("create and get", func(t *testing.T) {
		h := newHobby(t)
		got, err := hobbies.GetByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, h, got)
	})

	t.Run("get missing hobby", func(t *testing.T) {
		_, err := hobbies.GetByID(ctx, missingID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		created := []string{newHobby(t).ID, newHobby(t).ID, newHobby(t).ID}
		all, err := hobbies.List(ctx, domain.Page{})
		require.NoError(t, err)
		assert.Equal(t, created, only(idsOfHobbies(all), created))
	})

	t.Run("update patches only the given fields", func(t *testing.T) {
		h := newHobby(t)
		level := domain.PassionVeryHigh
		got, err := hobbies.Update(ctx, h.ID, domain.UpdateHobbyInput{PassionLevel: &level})
		require.NoError(t, err)
		assert.Equal(t, domain.PassionVeryHigh, got.PassionLevel)
		assert.Equal(t, h.Name, got.Name)
		assert.Equal(t, h.Year, got.Year)
		assert.Equal(t, owner, got.UserID)
	})

	t.Run("update missing hobby", func(t *testing.T) {
		_, err := hobbies.Update(ctx, missingID, domain.UpdateHobbyInput{Name: strPtr("Chess")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete returns the removed record", func(t *testing.T) {
		h := newHobby(t)
		deleted, err := hobbies.DeleteByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, h.Name, deleted.Name)

		_, err = hobbies.DeleteByID(ctx, h.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete many counts removed records", func(t *testing.T) {
		a, b := newHobby(t), newHobby(t)
		n, err := hobbies.DeleteMany(ctx, []string{a.ID, b.ID, missingID})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		got, err := hobbies.GetMany(ctx, []string{a.ID, b.ID})
		require.NoError(t, err)
		assert.Empty(t, got)

		n, err = hobbies.DeleteMany(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
