// Package stress: large-goroutine-count stress tests proving the
// reservation engine's row lock holds up well past the concurrency levels a
// functional test would exercise.
package stress

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomcore/purchasing-core/internal/orchestrator"
)

// TestScaleStress100ConcurrentOrders drives 100 concurrent CreateOrder calls
// against a product with 10 units of stock and checks exactly 10 succeed.
func TestScaleStress100ConcurrentOrders(t *testing.T) {
	cleanupTables(t)

	const (
		availableStock     = 10
		concurrentRequests = 100
		timeout            = 60 * time.Second
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	productID := seedProduct(t, "SCALE_100_WIDGET", 100, availableStock)

	start := time.Now()
	var wg sync.WaitGroup
	results := make(chan error, concurrentRequests)

	for i := 0; i < concurrentRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			externalUserID := fmt.Sprintf("scale100_user_%d", n)
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
	t.Logf("100-way scale stress completed in %s", time.Since(start))

	var successes, rejections, otherErrors int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case isInsufficientStock(err):
			rejections++
		default:
			otherErrors++
			t.Logf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, availableStock, successes, "exactly %d orders should win the available stock", availableStock)
	assert.Equal(t, concurrentRequests-availableStock, rejections, "the rest should be rejected for insufficient stock")
	assert.Equal(t, 0, otherErrors, "no unexpected errors")
	assert.Equal(t, int64(0), productStock(t, productID))
}

// TestScaleStress500MixedUsers runs 500 concurrent orders across many
// distinct products to show the lock contention is per-row, not global -
// every order has enough stock and none should fail.
func TestScaleStress500MixedUsers(t *testing.T) {
	cleanupTables(t)

	const (
		productCount       = 20
		concurrentRequests = 500
		timeout            = 90 * time.Second
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	productIDs := make([]int64, productCount)
	for i := 0; i < productCount; i++ {
		productIDs[i] = seedProduct(t, fmt.Sprintf("SCALE_500_WIDGET_%d", i), 100, concurrentRequests)
	}

	var wg sync.WaitGroup
	results := make(chan error, concurrentRequests)

	for i := 0; i < concurrentRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			externalUserID := fmt.Sprintf("scale500_user_%d", n)
			seedUser(t, externalUserID, 0)
			productID := productIDs[n%productCount]
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

	var failures int
	for err := range results {
		if err != nil {
			failures++
			t.Logf("unexpected failure: %v", err)
		}
	}
	require.Equal(t, 0, failures, "every order has ample stock and should succeed")
}

func isInsufficientStock(err error) bool {
	return err != nil && strings.Contains(err.Error(), "insufficient stock")
}
