package api

import (
	"context"
	"fmt"

	"localfund/internal/model"
)

const wishlistBase = "/api/wishlist"

type wishlistState struct {
	IsWishlisted bool `json:"isWishlisted"`
}

// Wishlist lists the member's saved restaurants with their funding progress.
func (c *Client) Wishlist(ctx context.Context) ([]model.WishlistItem, error) {
	list, err := getList[model.WishlistItem](ctx, c, wishlistBase+"/with-details", nil)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// IsWishlisted reports whether the restaurant is on the member's wishlist.
// Anonymous callers always get false.
func (c *Client) IsWishlisted(ctx context.Context, restaurantID int64) (bool, error) {
	var st wishlistState
	err := c.get(ctx, fmt.Sprintf("%s/check/%d", wishlistBase, restaurantID), nil, &st)
	return st.IsWishlisted, err
}

// ToggleWishlist adds or removes the restaurant and returns the new state.
func (c *Client) ToggleWishlist(ctx context.Context, restaurantID int64) (bool, error) {
	var st wishlistState
	body := map[string]int64{"restaurantId": restaurantID}
	err := c.post(ctx, wishlistBase+"/toggle", body, &st)
	return st.IsWishlisted, err
}

// RemoveWishlist takes the restaurant off the wishlist.
func (c *Client) RemoveWishlist(ctx context.Context, restaurantID int64) error {
	return c.delete(ctx, fmt.Sprintf("%s/%d", wishlistBase, restaurantID), nil)
}
