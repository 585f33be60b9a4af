package api

import (
	"context"
	"fmt"
	"net/url"

	"localfund/internal/model"
)

const notificationBase = "/api/notifications"

// Notifications returns one page of a member's notifications.
func (c *Client) Notifications(ctx context.Context, email string, page, size int) (List[model.Notification], error) {
	return getList[model.Notification](ctx, c, notificationBase+"/member/"+url.PathEscape(email), pageQuery(page, size))
}

// UnreadNotifications counts unread notifications.
func (c *Client) UnreadNotifications(ctx context.Context, email string) (int, error) {
	var n int
	err := c.get(ctx, notificationBase+"/member/"+url.PathEscape(email)+"/unread-count", nil, &n)
	return n, err
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.put(ctx, fmt.Sprintf("%s/%d/read", notificationBase, id), nil, nil)
}

// MarkAllNotificationsRead marks every notification of email read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, email string) error {
	return c.put(ctx, notificationBase+"/member/"+url.PathEscape(email)+"/read-all", nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("%s/%d", notificationBase, id), nil)
}

// DeleteReadNotifications removes every read notification of email.
func (c *Client) DeleteReadNotifications(ctx context.Context, email string) error {
	return c.delete(ctx, notificationBase+"/member/"+url.PathEscape(email)+"/read-delete-all", nil)
}
