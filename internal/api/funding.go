package api

import (
	"context"
	"fmt"
	"net/url"

	"localfund/internal/model"
)

// CreateFunding persists a restaurant funding after a successful payment.
func (c *Client) CreateFunding(ctx context.Context, rec model.FundingRecord) (model.FundingRecord, error) {
	var out model.FundingRecord
	if err := c.post(ctx, "/api/funding", rec, &out); err != nil {
		return model.FundingRecord{}, err
	}
	if out.MerchantUID == "" {
		// Some deployments answer with an empty body or just an id.
		id := out.ID
		out = rec
		out.ID = id
	}
	return out, nil
}

// MemberFundings lists the fundings of a member.
func (c *Client) MemberFundings(ctx context.Context, memberID string) ([]model.FundingRecord, error) {
	list, err := getList[model.FundingRecord](ctx, c, "/api/funding/member/"+url.PathEscape(memberID), nil)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// RestaurantFundings lists the fundings made to a restaurant.
func (c *Client) RestaurantFundings(ctx context.Context, restaurantID int64) ([]model.FundingRecord, error) {
	list, err := getList[model.FundingRecord](ctx, c, fmt.Sprintf("/api/funding/restaurant/%d", restaurantID), nil)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Funding fetches one funding record.
func (c *Client) Funding(ctx context.Context, id int64) (model.FundingRecord, error) {
	var rec model.FundingRecord
	err := c.get(ctx, fmt.Sprintf("/api/funding/%d", id), nil, &rec)
	return rec, err
}
