package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	t.Setenv(LogLevelVar, "")
	assert.Equal(t, "INFO", GetLogLevel())

	t.Setenv(LogLevelVar, "debug")
	assert.Equal(t, "DEBUG", GetLogLevel())
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		set      bool
		expected int
		wantErr  bool
	}{
		{name: "unset uses fallback", expected: 3000},
		{name: "set", value: "8080", set: true, expected: 8080},
		{name: "empty uses fallback", value: "", set: true, expected: 3000},
		{name: "garbage", value: "eighty", set: true, expected: 3000, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.set {
				t.Setenv("KVSTORE_TEST_PORT", test.value)
			}
			actual, err := GetInt("KVSTORE_TEST_PORT", 3000)
			if test.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, test.expected, actual)
		})
	}
}

func TestGetBool(t *testing.T) {
	b, err := GetBool("KVSTORE_TEST_FLAG", true)
	require.NoError(t, err)
	assert.True(t, b)

	t.Setenv("KVSTORE_TEST_FLAG", "false")
	b, err = GetBool("KVSTORE_TEST_FLAG", true)
	require.NoError(t, err)
	assert.False(t, b)
	assert.False(t, GetTruthy("KVSTORE_TEST_FLAG"))

	t.Setenv("KVSTORE_TEST_FLAG", "maybe")
	_, err = GetBool("KVSTORE_TEST_FLAG", true)
	require.Error(t, err)
	assert.False(t, GetTruthy("KVSTORE_TEST_FLAG"))
}
