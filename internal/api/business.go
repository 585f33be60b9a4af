package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"localfund/internal/model"
)

const businessBase = "/api/business-requests"

// Image is an optional upload attached to a business request.
type Image struct {
	Filename string
	Data     io.Reader
}

// SubmitBusinessRequest sends a request as multipart form data: the JSON
// payload in the "data" part and the image, if any, in the "image" part.
func (c *Client) SubmitBusinessRequest(ctx context.Context, req model.BusinessRequest, img *Image) (model.BusinessRequest, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	payload, err := json.Marshal(req)
	if err != nil {
		return model.BusinessRequest{}, fmt.Errorf("failed to marshal business request: %w", err)
	}
	if err := mw.WriteField("data", string(payload)); err != nil {
		return model.BusinessRequest{}, err
	}
	if img != nil && img.Data != nil {
		part, err := mw.CreateFormFile("image", filepath.Base(img.Filename))
		if err != nil {
			return model.BusinessRequest{}, err
		}
		if _, err := io.Copy(part, img.Data); err != nil {
			return model.BusinessRequest{}, fmt.Errorf("failed to attach image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return model.BusinessRequest{}, err
	}

	raw, err := c.send(ctx, c.httpClient, http.MethodPost, businessBase, nil, mw.FormDataContentType(), &buf)
	if err != nil {
		return model.BusinessRequest{}, err
	}
	out := req
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return model.BusinessRequest{}, fmt.Errorf("failed to decode business request: %w", err)
		}
	}
	return out, nil
}

// MemberBusinessRequests lists the requests submitted by email.
func (c *Client) MemberBusinessRequests(ctx context.Context, email string) ([]model.BusinessRequest, error) {
	list, err := getList[model.BusinessRequest](ctx, c, businessBase+"/member/"+url.PathEscape(email), nil)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// AdminBusinessRequests returns one page of requests. An empty status lists all.
func (c *Client) AdminBusinessRequests(ctx context.Context, status model.RequestStatus, page, size int) (List[model.BusinessRequest], error) {
	path := businessBase + "/admin"
	if status != "" {
		path += "/status/" + url.PathEscape(string(status))
	}
	return getList[model.BusinessRequest](ctx, c, path, pageQuery(page, size))
}

// BusinessRequest fetches one request.
func (c *Client) BusinessRequest(ctx context.Context, id int64) (model.BusinessRequest, error) {
	var r model.BusinessRequest
	err := c.get(ctx, fmt.Sprintf("%s/%d", businessBase, id), nil, &r)
	return r, err
}

// ReviewBusinessRequest approves or rejects a request.
func (c *Client) ReviewBusinessRequest(ctx context.Context, d model.ReviewDecision) (model.BusinessRequest, error) {
	if d.Status != model.RequestApproved && d.Status != model.RequestRejected {
		return model.BusinessRequest{}, fmt.Errorf("invalid review status %q", d.Status)
	}
	var out model.BusinessRequest
	err := c.put(ctx, businessBase+"/admin/review", d, &out)
	return out, err
}

// PendingBusinessRequests returns the number of requests awaiting review.
func (c *Client) PendingBusinessRequests(ctx context.Context) (int, error) {
	var n int
	if err := c.get(ctx, businessBase+"/admin/pending-count", nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}
