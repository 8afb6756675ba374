package guides

import (
	"context"
	"testing"

	"github.com/angelmondragon/canyonbook-backend/pkg/db/dbtest"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGuide(t *testing.T, repo *Repository) *models.Guide {
	t.Helper()
	guide := &models.Guide{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		DisplayName:   "Marta",
		DepositKind:   enums.DepositKindNone,
		DepositAmount: decimal.Zero,
	}
	require.NoError(t, repo.DB(context.Background()).Create(guide).Error)
	return guide
}

func TestUpdateDepositPolicy(t *testing.T) {
	repo := NewRepository(dbtest.Open(t, dbtest.Schema...))
	svc, err := NewService(repo)
	require.NoError(t, err)
	guide := seedGuide(t, repo)
	ctx := context.Background()

	dto, err := svc.UpdateDepositPolicy(ctx, guide.ID, enums.DepositKindPercentage, decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.Equal(t, enums.DepositKindPercentage, dto.DepositPolicy.Kind)
	assert.Equal(t, "30.00", dto.DepositPolicy.Amount)

	stored, err := repo.FindByUserID(ctx, guide.UserID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	policy := Policy(stored)
	assert.Equal(t, enums.DepositKindPercentage, policy.Kind)
	assert.True(t, policy.Amount.Equal(decimal.NewFromInt(30)))

	dto, err = svc.UpdateDepositPolicy(ctx, guide.ID, enums.DepositKindNone, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, "0.00", dto.DepositPolicy.Amount)
}

func TestUpdateDepositPolicyValidation(t *testing.T) {
	repo := NewRepository(dbtest.Open(t, dbtest.Schema...))
	svc, err := NewService(repo)
	require.NoError(t, err)
	guide := seedGuide(t, repo)
	ctx := context.Background()

	_, err = svc.UpdateDepositPolicy(ctx, guide.ID, "half", decimal.NewFromInt(5))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateDepositPolicy(ctx, guide.ID, enums.DepositKindPercentage, decimal.NewFromInt(120))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateDepositPolicy(ctx, uuid.New(), enums.DepositKindFixed, decimal.NewFromInt(20))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPolicyWithoutGuide(t *testing.T) {
	assert.Equal(t, enums.DepositKindNone, Policy(nil).Kind)
}
