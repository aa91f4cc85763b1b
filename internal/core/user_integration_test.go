package core_test

import (
	"context"
	"testing"

	"printshop/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Authenticate(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewUserService(pool)

	created, err := svc.CreateStaff(ctx, "Meera", "Meera@Shop.in", core.RoleAdmin, "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "meera@shop.in", created.Email)
	assert.NotEqual(t, "correct-horse", created.PasswordHash)

	got, err := svc.Authenticate(ctx, "MEERA@shop.in", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Authenticate(ctx, "meera@shop.in", "wrong")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@shop.in", "correct-horse")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = svc.CreateStaff(ctx, "Short", "s@shop.in", core.RoleStaff, "123")
	assert.True(t, core.IsValidation(err))
}
