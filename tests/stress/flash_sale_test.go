// Package stress: flash-sale scenario - far more demand than supply on a
// single hot product, the classic oversell risk the reservation engine's
// row lock exists to close off.
package stress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/orchestrator"
)

// TestFlashSaleOversellPrevention simulates a flash sale: 5 units of stock,
// 200 concurrent buyers, and checks exactly 5 orders complete while the
// other 195 are cleanly rejected with no partial reservation left behind.
func TestFlashSaleOversellPrevention(t *testing.T) {
	cleanupTables(t)

	const (
		availableStock = 5
		buyers         = 200
	)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	productID := seedProduct(t, "FLASH_SALE_WIDGET", 5000, availableStock)

	var wg sync.WaitGroup
	results := make(chan error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			externalUserID := fmt.Sprintf("flash_sale_buyer_%d", n)
			seedUser(t, externalUserID, 0)
			_, err := testOrch.CreateOrder(ctx, orchestrator.CreateOrderCommand{
				ExternalUserID: externalUserID,
				Items: []orchestrator.OrderItemRequest{
					{ProductID: productID, Quantity: 1},
				},
				CardType: "VISA",
				CardNo:   "4242424242424242",
			})
			results <- err
		}(i)
	}

	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
		} else if isInsufficientStock(err) {
			rejections++
		} else {
			t.Logf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, availableStock, successes)
	assert.Equal(t, buyers-availableStock, rejections)
	assert.Equal(t, int64(0), productStock(t, productID), "stock must land at exactly zero, never negative")
}

// TestFlashSaleBulkOrdersDrainStockExactly checks that a mix of single- and
// multi-unit orders against a flash sale product never lets the sum of
// completed quantities exceed the starting stock.
func TestFlashSaleBulkOrdersDrainStockExactly(t *testing.T) {
	cleanupTables(t)

	const (
		availableStock = 30
		buyers         = 60
	)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	productID := seedProduct(t, "FLASH_SALE_BULK_WIDGET", 1000, availableStock)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var completedQuantity int64

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			externalUserID := fmt.Sprintf("flash_bulk_buyer_%d", n)
			seedUser(t, externalUserID, 0)
			qty := int64(1 + n%3) // 1, 2, or 3 units per buyer
			order, err := testOrch.CreateOrder(ctx, orchestrator.CreateOrderCommand{
				ExternalUserID: externalUserID,
				Items: []orchestrator.OrderItemRequest{
					{ProductID: productID, Quantity: qty},
				},
				CardType: "VISA",
				CardNo:   "4242424242424242",
			})
			if err == nil && order.Status == model.OrderCompleted {
				mu.Lock()
				completedQuantity += qty
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	assert.LessOrEqual(t, completedQuantity, int64(availableStock), "completed quantity must never exceed starting stock")
	assert.Equal(t, int64(availableStock)-completedQuantity, productStock(t, productID))
}
