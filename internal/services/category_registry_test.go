package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfbt/internal/core"
	"pfbt/internal/gateway/memory"
)

func TestCreateCategoryBuiltinMakesNoGatewayCall(t *testing.T) {
	for _, name := range core.BuiltinCategories {
		t.Run(name, func(t *testing.T) {
			gw := &countingCategories{CategoryGateway: memory.New()}
			n := &recordingNotifier{}
			reg := NewCategoryRegistry(gw, n, nil)

			_, err := reg.CreateCategory(context.Background(), alice, name)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrAlreadyExists)
			assert.ErrorIs(t, err, core.ErrValidation)
			assert.Zero(t, gw.inserts, "built-in name must not reach the gateway")
			assert.Equal(t, Notification{MsgCategoryBuiltin, SeverityError}, n.last())
		})
	}
}

func TestCreateCategoryBuiltinIsCaseSensitive(t *testing.T) {
	gw := &countingCategories{CategoryGateway: memory.New()}
	reg := NewCategoryRegistry(gw, &recordingNotifier{}, nil)

	_, err := reg.CreateCategory(context.Background(), alice, "food")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.inserts)
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	n := &recordingNotifier{}
	reg := NewCategoryRegistry(memory.New(), n, pub)

	c, err := reg.CreateCategory(ctx, alice, "Gym")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "alice", c.UserID)
	assert.Equal(t, Notification{MsgCategoryAdded, SeveritySuccess}, n.last())
	require.Len(t, pub.changes, 1)
	assert.Equal(t, core.EntityCategory, pub.changes[0].Entity)
	assert.Equal(t, core.OpCreate, pub.changes[0].Op)

	_, err = reg.CreateCategory(ctx, alice, "Gym")
	assert.ErrorIs(t, err, core.ErrAlreadyExists)
	assert.NotErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, Notification{MsgCategoryExists, SeverityError}, n.last())

	names := reg.ListCategories(ctx, alice)
	assert.Equal(t, append(append([]string{}, core.BuiltinCategories...), "Gym"), names)
}

func TestCreateCategoryPersistenceFailure(t *testing.T) {
	n := &recordingNotifier{}
	reg := NewCategoryRegistry(failingCategories{err: errDown}, n, nil)

	_, err := reg.CreateCategory(context.Background(), alice, "Gym")
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.NotErrorIs(t, err, core.ErrAlreadyExists)
	assert.Equal(t, Notification{MsgCategoryAddFailed, SeverityError}, n.last())
}

func TestCreateCategoryWithoutSession(t *testing.T) {
	reg := NewCategoryRegistry(memory.New(), &recordingNotifier{}, nil)
	_, err := reg.CreateCategory(context.Background(), core.Actor{}, "Gym")
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestListCategoriesFailSoft(t *testing.T) {
	n := &recordingNotifier{}
	reg := NewCategoryRegistry(failingCategories{err: errDown}, n, nil)

	names := reg.ListCategories(context.Background(), alice)
	assert.Equal(t, core.BuiltinCategories, names)
	assert.Equal(t, Notification{MsgFetchCategoriesFailed, SeverityError}, n.last())

	_, err := reg.ListCustom(context.Background(), alice)
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestListCategoriesKeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	reg := NewCategoryRegistry(store, &recordingNotifier{}, nil)
	_, err := store.InsertCategory(ctx, alice, core.Category{UserID: "alice", Name: "Pets"})
	require.NoError(t, err)
	_, err = store.InsertCategory(ctx, alice, core.Category{UserID: "alice", Name: "Zoo"})
	require.NoError(t, err)

	names := reg.ListCategories(ctx, alice)
	require.Len(t, names, len(core.BuiltinCategories)+2)
	assert.Equal(t, []string{"Pets", "Zoo"}, names[len(core.BuiltinCategories):])
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	reg := NewCategoryRegistry(memory.New(), n, nil)

	c, err := reg.CreateCategory(ctx, alice, "Gym")
	require.NoError(t, err)
	require.NoError(t, reg.DeleteCategory(ctx, alice, c.ID))
	assert.Equal(t, Notification{MsgCategoryDeleted, SeveritySuccess}, n.last())

	err = reg.DeleteCategory(ctx, alice, c.ID)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, Notification{MsgCategoryDeleteFailed, SeverityError}, n.last())
}

func TestConcurrentCreateCategory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	reg := NewCategoryRegistry(store, &recordingNotifier{}, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = reg.CreateCategory(ctx, alice, "Gym")
		}()
	}
	wg.Wait()

	var ok, exists int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, core.ErrAlreadyExists):
			exists++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, exists)

	custom, err := reg.ListCustom(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, custom, 1)
}
