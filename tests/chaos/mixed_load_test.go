//go:build chaos

// Package chaos: mixed operation load - orders that succeed, orders that
// get declined, and plain reads, all interleaved under concurrency, with
// writer and reader goroutines racing each other.
package chaos

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cardForOutcome returns a card number that pgsim classifies per the given
// weighted outcome: most requests succeed, some are declined, a few hit an
// external-system failure.
func cardForOutcome(n int) string {
	switch n % 10 {
	case 0:
		return "4200000000000000" // business decline
	case 1:
		return "4600000000009999" // external-system failure
	default:
		return "4242424242424242" // success
	}
}

// TestMixedOrderLoadStaysConsistent fires a mix of order creations (some
// destined to succeed, some to be declined, some to hit a gateway timeout)
// concurrently with plain GETs, and checks the product's stock column never
// goes negative and every request gets a well-formed HTTP response.
func TestMixedOrderLoadStaysConsistent(t *testing.T) {
	cleanupTables(t)

	const (
		writers = 60
		readers = 20
		stock   = 30
	)
	productID := seedProduct(t, "CHAOS_MIXED_WIDGET", 200, stock)

	var wg sync.WaitGroup
	var panics int64
	var badResponses int64

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					atomic.AddInt64(&panics, 1)
				}
			}()
			userID := fmt.Sprintf("chaos_mixed_user_%d", n)
			seedUser(t, userID, 0)
			resp, err := postJSONAs(formatURL("/api/v1/orders"), userID, map[string]interface{}{
				"items": []map[string]interface{}{
					{"productId": productID, "quantity": 1},
				},
				"cardType": "VISA",
				"cardNo":   cardForOutcome(n),
			})
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 {
				atomic.AddInt64(&badResponses, 1)
			}
		}(i)
	}

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					atomic.AddInt64(&panics, 1)
				}
			}()
			path := formatURL(fmt.Sprintf("/api/v1/orders/%d", rand.Intn(writers)+1))
			resp, err := httpClient.Get(path)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 {
				atomic.AddInt64(&badResponses, 1)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(0), panics, "no goroutine should panic under mixed load")
	assert.Equal(t, int64(0), badResponses, "no request should surface a 5xx under mixed load")

	finalStock := productStock(t, productID)
	assert.GreaterOrEqual(t, finalStock, int64(0), "stock must never go negative")
	assert.LessOrEqual(t, finalStock, int64(stock), "stock must never exceed its starting value")

	resp, err := httpClient.Get(testServer + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
