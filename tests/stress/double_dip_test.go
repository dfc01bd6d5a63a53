// Package stress: double-dip prevention - a single user (or a single
// coupon grant) hit concurrently, verifying the optimistic version
// compare-and-swap in coupon redemption actually serializes the winner.
package stress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomcore/purchasing-core/internal/orchestrator"
)

// TestDoubleDipCouponRedemption fires 20 concurrent orders from the same
// user against the same coupon grant and checks exactly one wins the
// discount - the other 19 must see the coupon as already used, never the
// discount applied twice.
func TestDoubleDipCouponRedemption(t *testing.T) {
	cleanupTables(t)

	const attempts = 20

	externalUserID := "double_dip_user"
	internalID := seedUser(t, externalUserID, 0)
	productID := seedProduct(t, "DOUBLE_DIP_WIDGET", 1000, attempts)
	seedCoupon(t, "DOUBLEDIP", "FIXED", 100)
	grantCoupon(t, internalID, "DOUBLEDIP")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	discountsApplied := make(chan int64, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := testOrch.CreateOrder(ctx, orchestrator.CreateOrderCommand{
				ExternalUserID: externalUserID,
				Items: []orchestrator.OrderItemRequest{
					{ProductID: productID, Quantity: 1, CouponCode: "DOUBLEDIP"},
				},
				CardType: "VISA",
				CardNo:   "4242424242424242",
			})
			if err == nil && order.DiscountAmount > 0 {
				discountsApplied <- order.DiscountAmount
			}
		}()
	}

	wg.Wait()
	close(discountsApplied)

	var wins int
	for range discountsApplied {
		wins++
	}
	assert.Equal(t, 1, wins, "exactly one concurrent redemption attempt should win the single-use coupon")

	var used bool
	var version int64
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT used, version FROM user_coupon WHERE user_id = $1 AND coupon_code = $2`,
		internalID, "DOUBLEDIP").Scan(&used, &version))
	assert.True(t, used)
	assert.Equal(t, int64(1), version, "version should advance by exactly one CAS win, not once per attempt")
}

// TestDoubleDipSameUserRapidOrders checks that a single user firing many
// concurrent orders against ample stock and no coupon gets exactly that
// many independent orders, each charged once - no order or payment row is
// ever created twice for the same logical request.
func TestDoubleDipSameUserRapidOrders(t *testing.T) {
	cleanupTables(t)

	const attempts = 15

	externalUserID := "rapid_fire_user"
	seedUser(t, externalUserID, 0)
	productID := seedProduct(t, "RAPID_FIRE_WIDGET", 200, attempts*2)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes int

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := testOrch.CreateOrder(ctx, orchestrator.CreateOrderCommand{
				ExternalUserID: externalUserID,
				Items: []orchestrator.OrderItemRequest{
					{ProductID: productID, Quantity: 1},
				},
				CardType: "VISA",
				CardNo:   "4242424242424242",
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, attempts, successes, "every independent order request should succeed on its own")

	var orderCount int
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM "order" WHERE user_id = (SELECT id FROM "user" WHERE external_user_id = $1)`,
		externalUserID).Scan(&orderCount))
	assert.Equal(t, attempts, orderCount, "each request should create exactly one order row, never a duplicate")
}
