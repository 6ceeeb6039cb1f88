package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldLabelsErrors(t *testing.T) {
	v := Field("name", MaxLength(3))

	require.NoError(t, v("abc"))

	err := v("abcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestMaxLength(t *testing.T) {
	v := MaxLength(5)
	assert.NoError(t, v(""))
	assert.NoError(t, v("12345"))
	assert.Error(t, v("123456"))
}
