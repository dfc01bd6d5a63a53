package handler

import (
	"time"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/orchestrator"
)

// CreateOrderItemRequest is one requested line in CreateOrderRequest.
type CreateOrderItemRequest struct {
	ProductID  int64  `json:"productId" validate:"required,gt=0"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	CouponCode string `json:"couponCode,omitempty"`
}

// CreateOrderRequest is the body of POST /api/v1/orders.
type CreateOrderRequest struct {
	Items     []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	UsedPoint int64                    `json:"usedPoint" validate:"gte=0"`
	CardType  string                   `json:"cardType,omitempty"`
	CardNo    string                   `json:"cardNo,omitempty"`
}

// toCommand converts the validated HTTP request into an orchestrator
// command, binding in the externalUserId carried by the auth header.
func (r CreateOrderRequest) toCommand(externalUserID string) orchestrator.CreateOrderCommand {
	items := make([]orchestrator.OrderItemRequest, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, orchestrator.OrderItemRequest{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			CouponCode: it.CouponCode,
		})
	}
	return orchestrator.CreateOrderCommand{
		ExternalUserID: externalUserID,
		Items:          items,
		UsedPoint:      r.UsedPoint,
		CardType:       r.CardType,
		CardNo:         r.CardNo,
	}
}

// CallbackRequest is the body of POST /api/v1/orders/{id}/callback. Status
// and Reason are accepted for logging only - the handler always re-checks
// the authoritative PG ledger rather than trusting the callback's claim.
type CallbackRequest struct {
	TransactionKey string `json:"transactionKey" validate:"required,notblank"`
	OrderID        string `json:"orderId" validate:"required,notblank"`
	Status         string `json:"status,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// OrderItemInfo is the wire representation of a frozen order line.
type OrderItemInfo struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

// OrderInfo is the wire representation of an Order returned by the orders
// endpoints.
type OrderInfo struct {
	ID             int64           `json:"id"`
	Status         string          `json:"status"`
	TotalAmount    int64           `json:"totalAmount"`
	Items          []OrderItemInfo `json:"items"`
	CouponCode     string          `json:"couponCode,omitempty"`
	DiscountAmount int64           `json:"discountAmount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toOrderInfo(o *model.Order) OrderInfo {
	items := make([]OrderItemInfo, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemInfo{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return OrderInfo{
		ID:             o.ID,
		Status:         string(o.Status),
		TotalAmount:    o.TotalAmount,
		Items:          items,
		CouponCode:     o.CouponCode,
		DiscountAmount: o.DiscountAmount,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toOrderInfoList(orders []*model.Order) []OrderInfo {
	out := make([]OrderInfo, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderInfo(o))
	}
	return out
}
