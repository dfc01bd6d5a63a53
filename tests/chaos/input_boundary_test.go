//go:build chaos

// Package chaos: adversarial and boundary request bodies against order
// creation - zero/negative quantities, oversized payloads, missing fields,
// and malformed JSON, none of which should ever reach the database layer.
package chaos

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundary_ZeroQuantityRejected(t *testing.T) {
	cleanupTables(t)
	userID := "chaos_boundary_zero_qty"
	seedUser(t, userID, 0)
	productID := seedProduct(t, "CHAOS_BOUNDARY_WIDGET_1", 100, 10)

	resp, err := postJSONAs(formatURL("/api/v1/orders"), userID, map[string]interface{}{
		"items": []map[string]interface{}{
			{"productId": productID, "quantity": 0},
		},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoundary_NegativeQuantityRejected(t *testing.T) {
	cleanupTables(t)
	userID := "chaos_boundary_neg_qty"
	seedUser(t, userID, 0)
	productID := seedProduct(t, "CHAOS_BOUNDARY_WIDGET_2", 100, 10)

	resp, err := postJSONAs(formatURL("/api/v1/orders"), userID, map[string]interface{}{
		"items": []map[string]interface{}{
			{"productId": productID, "quantity": -5},
		},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoundary_EmptyItemsRejected(t *testing.T) {
	cleanupTables(t)
	userID := "chaos_boundary_empty_items"
	seedUser(t, userID, 0)

	resp, err := postJSONAs(formatURL("/api/v1/orders"), userID, map[string]interface{}{
		"items": []map[string]interface{}{},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoundary_NegativeUsedPointRejected(t *testing.T) {
	cleanupTables(t)
	userID := "chaos_boundary_neg_point"
	seedUser(t, userID, 100)
	productID := seedProduct(t, "CHAOS_BOUNDARY_WIDGET_3", 100, 10)

	resp, err := postJSONAs(formatURL("/api/v1/orders"), userID, map[string]interface{}{
		"items": []map[string]interface{}{
			{"productId": productID, "quantity": 1},
		},
		"usedPoint": -50,
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoundary_NonexistentProductIDRejected(t *testing.T) {
	cleanupTables(t)
	userID := "chaos_boundary_missing_product"
	seedUser(t, userID, 0)

	resp, err := postJSONAs(formatURL("/api/v1/orders"), userID, map[string]interface{}{
		"items": []map[string]interface{}{
			{"productId": 999999999, "quantity": 1},
		},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBoundary_MissingUserHeaderRejected(t *testing.T) {
	cleanupTables(t)
	productID := seedProduct(t, "CHAOS_BOUNDARY_WIDGET_4", 100, 10)

	req, err := http.NewRequest(http.MethodPost, formatURL("/api/v1/orders"),
		bytes.NewReader([]byte(`{"items":[{"productId":`+strconv.FormatInt(productID, 10)+`,"quantity":1}]}`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoundary_MalformedJSONRejected(t *testing.T) {
	cleanupTables(t)
	userID := "chaos_boundary_malformed_json"
	seedUser(t, userID, 0)

	req, err := http.NewRequest(http.MethodPost, formatURL("/api/v1/orders"),
		bytes.NewReader([]byte(`{"items": [{"productId": 1, "quantity": }]`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-External-User-Id", userID)

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoundary_OversizedItemListRejected(t *testing.T) {
	cleanupTables(t)
	userID := "chaos_boundary_oversized"
	seedUser(t, userID, 0)
	productID := seedProduct(t, "CHAOS_BOUNDARY_WIDGET_5", 100, 100000)

	var sb strings.Builder
	sb.WriteString(`{"items":[`)
	for i := 0; i < 5000; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"productId":` + strconv.FormatInt(productID, 10) + `,"quantity":1}`)
	}
	sb.WriteString(`]}`)

	req, err := http.NewRequest(http.MethodPost, formatURL("/api/v1/orders"), strings.NewReader(sb.String()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-External-User-Id", userID)

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	// A request this large should either be rejected outright or processed
	// atomically - never partially applied.
	assert.NotEqual(t, http.StatusInternalServerError, resp.StatusCode)
}
