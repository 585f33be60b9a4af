package api

import (
	"context"
	"strconv"

	"localfund/internal/model"
	"localfund/internal/paging"
)

// NearbyForOne returns one page of open single-serving slots around q,
// nearest first.
func (c *Client) NearbyForOne(ctx context.Context, q NearbyQuery, page, size int) (List[model.ForOneSlot], error) {
	query := pageQuery(page, size)
	query.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(q.Lng, 'f', -1, 64))
	query.Set("radius", strconv.Itoa(q.Radius))
	return getList[model.ForOneSlot](ctx, c, "/api/for-one/nearby", query)
}

// ForOneSource pages NearbyForOne.
func (c *Client) ForOneSource(q NearbyQuery) paging.Source[model.ForOneSlot] {
	return paging.SourceFunc[model.ForOneSlot](func(ctx context.Context, index, size int) (paging.Page[model.ForOneSlot], error) {
		list, err := c.NearbyForOne(ctx, q, index, size)
		if err != nil {
			return paging.Page[model.ForOneSlot]{}, err
		}
		return list.Page(index), nil
	})
}

// CreateForOneFunding takes a seat in a slot after a successful payment. The
// backend answers with the funding it recorded for the restaurant.
func (c *Client) CreateForOneFunding(ctx context.Context, req model.ForOneFundingRequest) (model.FundingRecord, error) {
	var out model.FundingRecord
	if err := c.post(ctx, "/api/for-one/funding", req, &out); err != nil {
		return model.FundingRecord{}, err
	}
	if out.MerchantUID == "" {
		id := out.ID
		out = req.FundingRecord
		out.ID = id
	}
	return out, nil
}
