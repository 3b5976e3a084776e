//go:build !android

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageDefault(t *testing.T) {
	assert.NoError(t, EnsureStorageDir())
	assert.Empty(t, GetStoragePath())
}
