package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"localfund/internal/paging"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// List is a decoded list payload. The backend answers list endpoints either
// with a bare array or with a Spring page object.
type List[T any] struct {
	Items  []T
	Number int
	Last   bool
	Total  int
	// Known is set when the payload itself said whether it was the last page.
	Known bool
}

// Page converts the list into a paging.Page for the given index.
func (l List[T]) Page(index int) paging.Page[T] {
	return paging.Page[T]{
		Items:    l.Items,
		Index:    index,
		HasMore:  !l.Last,
		Total:    l.Total,
		Explicit: l.Known,
	}
}

// decodeList detects the payload shape. Anything that is neither an array
// nor a page object decodes to an empty, final list and is logged.
func decodeList[T any](log *zap.Logger, path string, raw []byte) (List[T], error) {
	empty := List[T]{Items: []T{}, Last: true, Total: 0}

	if !gjson.ValidBytes(raw) {
		log.Warn("list payload is not JSON", zap.String("path", path))
		return empty, nil
	}

	res := gjson.ParseBytes(raw)
	switch {
	case res.IsArray():
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return empty, fmt.Errorf("failed to decode list %s: %w", path, err)
		}
		if items == nil {
			items = []T{}
		}
		return List[T]{Items: items, Last: true, Total: len(items), Known: true}, nil

	case res.IsObject() && res.Get("content").IsArray():
		var items []T
		if err := json.Unmarshal([]byte(res.Get("content").Raw), &items); err != nil {
			return empty, fmt.Errorf("failed to decode page %s: %w", path, err)
		}
		if items == nil {
			items = []T{}
		}
		list := List[T]{
			Items:  items,
			Number: int(res.Get("number").Int()),
			Last:   true,
			Total:  paging.UnknownTotal,
		}
		if last := res.Get("last"); last.Exists() {
			list.Last = last.Bool()
			list.Known = true
		}
		if total := res.Get("totalElements"); total.Exists() {
			list.Total = int(total.Int())
		}
		return list, nil
	}

	log.Warn("unexpected list payload shape",
		zap.String("path", path),
		zap.String("type", res.Type.String()),
	)
	return empty, nil
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) (List[T], error) {
	raw, err := c.send(ctx, c.httpClient, http.MethodGet, path, query, "", nil)
	if err != nil {
		return List[T]{}, err
	}
	return decodeList[T](c.log, path, raw)
}
