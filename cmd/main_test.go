package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"precast-tracker/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLabelCommand(t *testing.T) {
	id := uuid.New()
	path := filepath.Join(t.TempDir(), "label.png")

	out, err := run(t, "label", id.String(), "-o", path, "--base-url", "https://scan.example.is/e/", "--size", "256")
	require.NoError(t, err)
	assert.Contains(t, out, "https://scan.example.is/e/"+id.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))

	_, err = run(t, "label", "not-an-id", "-o", path)
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	id := uuid.New()

	out, err := run(t, "token", id.String(), "--secret", "s3cret")
	require.NoError(t, err)

	claims, err := utils.ValidateToken(strings.TrimSpace(out), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "precast-tracker", claims.Issuer)

	t.Setenv("JWT_SECRET", "")
	_, err = run(t, "token", id.String())
	assert.Error(t, err)
}
