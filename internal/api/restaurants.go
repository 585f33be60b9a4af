package api

import (
	"context"
	"fmt"
	"strconv"

	"localfund/internal/model"
	"localfund/internal/paging"
)

// NearbyQuery selects restaurants around a point.
type NearbyQuery struct {
	Lat    float64
	Lng    float64
	Radius int
}

// NearbyRestaurants returns one page of restaurants around q.
func (c *Client) NearbyRestaurants(ctx context.Context, q NearbyQuery, page, size int) (List[model.Restaurant], error) {
	query := pageQuery(page, size)
	query.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(q.Lng, 'f', -1, 64))
	query.Set("radius", strconv.Itoa(q.Radius))
	return getList[model.Restaurant](ctx, c, "/api/restaurants/nearby", query)
}

// RestaurantSource pages NearbyRestaurants.
func (c *Client) RestaurantSource(q NearbyQuery) paging.Source[model.Restaurant] {
	return paging.SourceFunc[model.Restaurant](func(ctx context.Context, index, size int) (paging.Page[model.Restaurant], error) {
		list, err := c.NearbyRestaurants(ctx, q, index, size)
		if err != nil {
			return paging.Page[model.Restaurant]{}, err
		}
		return list.Page(index), nil
	})
}

// SearchRestaurants returns one page of restaurants matching keyword by name,
// category, tags or address.
func (c *Client) SearchRestaurants(ctx context.Context, keyword string, page, size int) (List[model.Restaurant], error) {
	query := pageQuery(page, size)
	query.Set("keyword", keyword)
	return getList[model.Restaurant](ctx, c, "/api/restaurants/search", query)
}

// RestaurantSearchSource pages SearchRestaurants.
func (c *Client) RestaurantSearchSource(keyword string) paging.Source[model.Restaurant] {
	return paging.SourceFunc[model.Restaurant](func(ctx context.Context, index, size int) (paging.Page[model.Restaurant], error) {
		list, err := c.SearchRestaurants(ctx, keyword, index, size)
		if err != nil {
			return paging.Page[model.Restaurant]{}, err
		}
		return list.Page(index), nil
	})
}

// Restaurant fetches a single restaurant.
func (c *Client) Restaurant(ctx context.Context, id int64) (model.Restaurant, error) {
	var r model.Restaurant
	err := c.get(ctx, fmt.Sprintf("/api/restaurants/%d", id), nil, &r)
	return r, err
}

// Menus fetches the menu of a restaurant.
func (c *Client) Menus(ctx context.Context, restaurantID int64) ([]model.MenuItem, error) {
	list, err := getList[model.MenuItem](ctx, c, fmt.Sprintf("/api/restaurants/%d/menus", restaurantID), nil)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
