package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("skip-migrate"))
}

func TestMigrate_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")

	t.Setenv("USERS_API_PRIMARY__ENV", "test")
	t.Setenv("USERS_API_DATABASE__DRIVER", "sqlite")
	t.Setenv("USERS_API_DATABASE__NAME", dbPath)

	require.NoError(t, migrate(context.Background()))

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}
