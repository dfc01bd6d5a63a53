package reservation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

type mockUserLocker struct {
	user          *model.User
	lockErr       error
	updatedPoints []int64
}

func (m *mockUserLocker) LockExclusiveByExternalID(ctx context.Context, tx database.TxQuerier, externalUserID string) (*model.User, error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	return m.user, nil
}

func (m *mockUserLocker) UpdatePoint(ctx context.Context, tx database.TxQuerier, userID int64, newPoint int64) error {
	m.updatedPoints = append(m.updatedPoints, newPoint)
	return nil
}

type mockProductLocker struct {
	products      map[int64]*model.Product
	lockErr       error
	lockedOrder   []int64
	updatedStocks map[int64]int64
}

func (m *mockProductLocker) LockExclusiveByIDs(ctx context.Context, tx database.TxQuerier, productIDs []int64) (map[int64]*model.Product, error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	m.lockedOrder = append([]int64(nil), productIDs...)
	return m.products, nil
}

func (m *mockProductLocker) UpdateStock(ctx context.Context, tx database.TxQuerier, productID int64, newStock int64) error {
	if m.updatedStocks == nil {
		m.updatedStocks = map[int64]int64{}
	}
	m.updatedStocks[productID] = newStock
	return nil
}

func TestEngine_DeductPoint_InsufficientBalance(t *testing.T) {
	users := &mockUserLocker{}
	e := New(users, &mockProductLocker{})
	user := &model.User{ID: 1, Point: 100}

	err := e.DeductPoint(context.Background(), nil, user, 200)
	require.Error(t, err)
	assert.True(t, apperr.IsBadRequest(err))
	assert.Equal(t, int64(100), user.Point, "balance must not change on rejected deduction")
}

func TestEngine_DeductPoint_Success(t *testing.T) {
	users := &mockUserLocker{}
	e := New(users, &mockProductLocker{})
	user := &model.User{ID: 1, Point: 100}

	err := e.DeductPoint(context.Background(), nil, user, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(60), user.Point)
	assert.Equal(t, []int64{60}, users.updatedPoints)
}

func TestEngine_DecreaseStock_InsufficientStock(t *testing.T) {
	products := &mockProductLocker{}
	e := New(&mockUserLocker{}, products)
	product := &model.Product{ID: 5, Stock: 2}

	err := e.DecreaseStock(context.Background(), nil, product, 3)
	require.Error(t, err)
	assert.True(t, apperr.IsBadRequest(err))
	assert.Equal(t, int64(2), product.Stock)
}

func TestEngine_DecreaseStock_ZeroOrNegativeQuantityRejected(t *testing.T) {
	e := New(&mockUserLocker{}, &mockProductLocker{})
	product := &model.Product{ID: 5, Stock: 10}

	for _, q := range []int64{0, -1} {
		err := e.DecreaseStock(context.Background(), nil, product, q)
		require.Error(t, err)
		assert.True(t, apperr.IsBadRequest(err))
	}
}

func TestEngine_LockProductsExclusive_SortsAscendingEvenForSingleElement(t *testing.T) {
	products := &mockProductLocker{products: map[int64]*model.Product{}}
	e := New(&mockUserLocker{}, products)

	_, err := e.LockProductsExclusive(context.Background(), nil, []int64{7})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, products.lockedOrder)

	_, err = e.LockProductsExclusive(context.Background(), nil, []int64{9, 3, 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 9}, products.lockedOrder)
}

func TestEngine_RestoreStockAndReceivePoint_AreInverses(t *testing.T) {
	products := &mockProductLocker{}
	users := &mockUserLocker{}
	e := New(users, products)

	product := &model.Product{ID: 1, Stock: 5}
	require.NoError(t, e.RestoreStock(context.Background(), nil, product, 3))
	assert.Equal(t, int64(8), product.Stock)

	user := &model.User{ID: 1, Point: 100}
	require.NoError(t, e.ReceivePoint(context.Background(), nil, user, 25))
	assert.Equal(t, int64(125), user.Point)
}
