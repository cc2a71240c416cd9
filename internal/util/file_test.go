package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "machine_learning", SafeFileName("Machine Learning"))
	assert.Equal(t, "c___basics", SafeFileName("C++ Basics"))
	assert.Equal(t, "go", SafeFileName("Go"))
	assert.Equal(t, "", SafeFileName(""))
	assert.Equal(t, "____", SafeFileName("机器学习"))
}
