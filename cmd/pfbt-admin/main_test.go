package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfbt/internal/services"
)

// useSQLite points every command at a fresh database so separate runs share state.
func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "pfbt.db"))
	for _, key := range []string{"DEV_USER_ID", "AMQP_URL", "DATABASE_URL", "LOG_LEVEL", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCategoriesAddAndList(t *testing.T) {
	useSQLite(t)

	out, _, err := run(t, "categories", "add", "Gym", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, services.MsgCategoryAdded)

	out, _, err = run(t, "categories", "list", "--custom", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Gym")
	assert.NotContains(t, out, "built-in")

	out, _, err = run(t, "categories", "list", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "built-in")

	// Another user does not see alice's categories.
	out, _, err = run(t, "categories", "list", "--custom", "--user", "bob")
	require.NoError(t, err)
	assert.NotContains(t, out, "Gym")
}

func TestCategoriesAddRejectsBuiltin(t *testing.T) {
	useSQLite(t)

	out, errOut, err := run(t, "categories", "add", "Food", "--user", "alice")
	require.Error(t, err)
	assert.Contains(t, errOut, services.MsgCategoryBuiltin)
	assert.NotContains(t, out, services.MsgCategoryAdded)
}

func TestUserFallsBackToDevUserID(t *testing.T) {
	useSQLite(t)

	_, _, err := run(t, "categories", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user")

	t.Setenv("DEV_USER_ID", "dev")
	_, _, err = run(t, "categories", "add", "Gym")
	require.NoError(t, err)

	out, _, err := run(t, "categories", "list", "--custom", "--user", "dev")
	require.NoError(t, err)
	assert.Contains(t, out, "Gym")
}

func TestInvalidLogLevel(t *testing.T) {
	useSQLite(t)

	_, _, err := run(t, "categories", "list", "--user", "alice", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-level")
}
