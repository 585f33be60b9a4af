package api

import (
	"context"
	"fmt"
	"net/url"

	"localfund/internal/model"
)

const specialtyOrders = "/api/funding-specialty"

// CreateSpecialtyOrder records a specialty purchase.
func (c *Client) CreateSpecialtyOrder(ctx context.Context, order model.SpecialtyOrder) (model.SpecialtyOrder, error) {
	var out model.SpecialtyOrder
	if err := c.post(ctx, specialtyOrders, order, &out); err != nil {
		return model.SpecialtyOrder{}, err
	}
	if out.MerchantUID == "" {
		id := out.ID
		out = order
		out.ID = id
	}
	return out, nil
}

// CompleteSpecialtyPayment attaches the provider transaction to an order.
func (c *Client) CompleteSpecialtyPayment(ctx context.Context, impUID, merchantUID string) error {
	body := map[string]string{"impUid": impUID, "merchantUid": merchantUID}
	return c.put(ctx, specialtyOrders+"/payment/complete", body, nil)
}

// MemberSpecialtyOrders returns one page of a member's orders.
func (c *Client) MemberSpecialtyOrders(ctx context.Context, memberID string, page, size int) (List[model.SpecialtyOrder], error) {
	path := fmt.Sprintf("%s/member/%s/page", specialtyOrders, url.PathEscape(memberID))
	return getList[model.SpecialtyOrder](ctx, c, path, pageQuery(page, size))
}

// SpecialtyOrder fetches one order.
func (c *Client) SpecialtyOrder(ctx context.Context, id int64) (model.SpecialtyOrder, error) {
	var o model.SpecialtyOrder
	err := c.get(ctx, fmt.Sprintf("%s/%d", specialtyOrders, id), nil, &o)
	return o, err
}

// CancelSpecialtyOrder cancels an order.
func (c *Client) CancelSpecialtyOrder(ctx context.Context, id int64) error {
	return c.put(ctx, fmt.Sprintf("%s/%d/cancel", specialtyOrders, id), nil, nil)
}

// SpecialtyOrderStatistics summarizes a member's orders.
func (c *Client) SpecialtyOrderStatistics(ctx context.Context, memberID string) (model.OrderStatistics, error) {
	var s model.OrderStatistics
	err := c.get(ctx, specialtyOrders+"/statistics/member/"+url.PathEscape(memberID), nil, &s)
	return s, err
}
