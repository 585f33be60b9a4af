package api

import (
	"context"
	"fmt"
	"net/url"

	"localfund/internal/model"
)

// Specialties fetches the full specialty list. The listing filters and pages it locally.
func (c *Client) Specialties(ctx context.Context) ([]model.Specialty, error) {
	list, err := getList[model.Specialty](ctx, c, "/api/local-specialties", nil)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Specialty fetches one specialty.
func (c *Client) Specialty(ctx context.Context, id int64) (model.Specialty, error) {
	var s model.Specialty
	err := c.get(ctx, fmt.Sprintf("/api/local-specialties/%d", id), nil, &s)
	return s, err
}

// SearchSpecialties runs a server-side text search.
func (c *Client) SearchSpecialties(ctx context.Context, text string) ([]model.Specialty, error) {
	q := url.Values{}
	q.Set("q", text)
	list, err := getList[model.Specialty](ctx, c, "/api/local-specialties/search", q)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// SpecialtiesBySido lists specialties of a region, narrowed to sigungu when set.
func (c *Client) SpecialtiesBySido(ctx context.Context, sido, sigungu string) ([]model.Specialty, error) {
	path := "/api/local-specialties/sido/" + url.PathEscape(sido)
	if sigungu != "" {
		path += "/sigungu/" + url.PathEscape(sigungu)
	}
	list, err := getList[model.Specialty](ctx, c, path, nil)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// SpecialtyFundingProgress returns aggregate funding totals.
func (c *Client) SpecialtyFundingProgress(ctx context.Context) (model.FundingProgress, error) {
	var p model.FundingProgress
	err := c.get(ctx, "/api/local-specialties/funding/progress", nil, &p)
	return p, err
}
