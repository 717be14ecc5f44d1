package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameID(t *testing.T) {
	id := NewGameID()
	require.NoError(t, Validate(id))

	// Time-ordered ids from the same process never collide.
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewGameID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewCredential(t *testing.T) {
	a := NewCredential()
	b := NewCredential()

	require.NoError(t, Validate(a))
	require.NoError(t, Validate(b))
	assert.NotEqual(t, a, b)
}

func TestEqual(t *testing.T) {
	cred := NewCredential()

	assert.True(t, Equal(cred, cred))
	assert.False(t, Equal(cred, NewCredential()))
	assert.False(t, Equal("", cred))
	assert.False(t, Equal(cred[:25], cred))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "0123456789abcdefghjkmnpqrs"},
		{name: "too short", input: "0123456789", wantErr: true},
		{name: "too long", input: "0123456789abcdefghjkmnpqrst", wantErr: true},
		{name: "excluded letter", input: "l123456789abcdefghjkmnpqrs", wantErr: true},
		{name: "uppercase", input: "A123456789abcdefghjkmnpqrs", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
