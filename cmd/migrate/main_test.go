package main

import (
	"bytes"
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrationName = regexp.MustCompile(`^(\d{6})_[a-z_]+\.(up|down)\.sql$`)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		m := migrationName.FindStringSubmatch(e.Name())
		require.NotNil(t, m, "unexpected migration file name %s", e.Name())

		base := strings.TrimSuffix(strings.TrimSuffix(e.Name(), ".sql"), "."+m[2])
		if m[2] == "up" {
			ups[base] = true
		} else {
			downs[base] = true
		}
	}

	assert.Equal(t, ups, downs)
}

func TestMigrationsNotEmpty(t *testing.T) {
	err := fs.WalkDir(migrations, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(migrations, path)
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(string(data)), path)
		return nil
	})
	require.NoError(t, err)
}

func TestDownRequiresAll(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"down", "--dsn", "postgres://invalid"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestStepsValidation(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"up", "zero", "--dsn", "postgres://invalid"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive integer")
}
