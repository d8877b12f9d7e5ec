package reference_test

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/reference"
	"github.com/diewo77/go-taxprep/internal/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectDepositFee(t *testing.T) {
	conn := testdb.Seeded(t)
	s := reference.NewStore(conn, time.Minute)
	ctx := context.Background()

	var p models.Product
	require.NoError(t, conn.Where("year = ?", 2025).First(&p).Error)

	fee, err := s.DirectDepositFee(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.RequireFromString("5.00")), "fee = %s", fee)

	_, err = s.DirectDepositFee(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestFeeCachedUntilInvalidate(t *testing.T) {
	conn := testdb.Seeded(t)
	s := reference.NewStore(conn, time.Hour)
	ctx := context.Background()

	var p models.Product
	require.NoError(t, conn.Where("year = ?", 2025).First(&p).Error)
	_, err := s.DirectDepositFee(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, conn.Model(&models.DirectDepositFee{}).Where("product_id = ?", p.ID).
		Update("amount", decimal.RequireFromString("7.50")).Error)

	fee, err := s.DirectDepositFee(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", fee.StringFixed(2), "stale value expected before invalidation")

	s.Invalidate()
	fee, err = s.DirectDepositFee(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "7.50", fee.StringFixed(2))
}

func TestRulesMatch(t *testing.T) {
	conn := testdb.Seeded(t)
	s := reference.NewStore(conn, time.Minute)
	ctx := context.Background()

	var q models.Question
	require.NoError(t, conn.Where("text = ?", "Were you employed during the year?").First(&q).Error)
	var t4 models.ChecklistItem
	require.NoError(t, conn.Where("name = ?", "T4").First(&t4).Error)

	idx, err := s.Rules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{t4.ID}, idx.Match(q.ID, "Yes"))
	assert.Empty(t, idx.Match(q.ID, "No"))

	items, err := s.ChecklistItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T4", items[t4.ID].Name)
}

func TestQuestionsAndProducts(t *testing.T) {
	conn := testdb.Seeded(t)
	s := reference.NewStore(conn, time.Minute)
	ctx := context.Background()

	products, err := s.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Less(t, products[0].ID, products[1].ID)

	_, err = s.Product(ctx, 424242)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Income", cats[0].Name)

	qs, err := s.QuestionsByCategory(ctx, cats[0].ID)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, 1, qs[0].Position)

	_, err = s.Question(ctx, 424242)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStatuses(t *testing.T) {
	conn := testdb.Seeded(t)
	s := reference.NewStore(conn, time.Minute)

	all, err := s.Statuses(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "new", all[0].Name)

	st, err := s.StatusByName(context.Background(), "filed")
	require.NoError(t, err)
	assert.Equal(t, "Filed", st.DisplayName)

	_, err = s.StatusByName(context.Background(), "archived")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
