package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimitsValidator(t *testing.T) {
	t.Parallel()

	validator := NewLimitsValidator()

	t.Run("accepts bounded limits", func(t *testing.T) {
		err := validator.Validate([]byte(`{"maxUsers": 5, "maxClients": 500, "maxStorageGB": 5}`))
		require.NoError(t, err)
	})

	t.Run("accepts unlimited sentinel", func(t *testing.T) {
		err := validator.Validate([]byte(`{"maxUsers": -1, "maxClients": -1, "maxStorageGB": 1024}`))
		require.NoError(t, err)
	})

	t.Run("accepts module flags", func(t *testing.T) {
		err := validator.Validate([]byte(`{
			"maxUsers": 10, "maxClients": 1000, "maxStorageGB": 25, "aiLimit": 100,
			"modules": {"pos": true, "lab": true, "ai": true, "reports": true, "multiBranch": false}
		}`))
		require.NoError(t, err)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		err := validator.Validate([]byte(`{"maxUsers": 5}`))
		require.Error(t, err)
	})

	t.Run("rejects values below the sentinel", func(t *testing.T) {
		err := validator.Validate([]byte(`{"maxUsers": -2, "maxClients": 0, "maxStorageGB": 1}`))
		require.Error(t, err)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		err := validator.Validate([]byte(`{"maxUsers": 1, "maxClients": 1, "maxStorageGB": 1, "maxRooms": 3}`))
		require.Error(t, err)
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		require.Error(t, validator.Validate(nil))
	})
}
