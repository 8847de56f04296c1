package testutil

import (
	"os"
	"testing"

	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertFileContains asserts that a file contains the expected substring.
func AssertFileContains(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	assert.Contains(t, string(content), expected, msgAndArgs...)
}

// AssertFileNotExists asserts that no file exists at the given path.
func AssertFileNotExists(t testing.TB, path string) {
	t.Helper()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected file to not exist: %s", path)
}

// AssertUserError asserts that err carries a UserError with code anywhere
// in its chain, including joined errors.
func AssertUserError(t testing.TB, err error, code string, msgAndArgs ...interface{}) bool {
	t.Helper()

	if !assert.Error(t, err, msgAndArgs...) {
		return false
	}
	return assert.ErrorIs(t, err, &config.UserError{Code: code}, msgAndArgs...)
}
