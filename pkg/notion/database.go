package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page of a database query, following cursors until
// HasMore is false. Filter, Sorts and PageSize are taken from q when non-nil.
func QueryAll(ctx context.Context, c Client, dbID string, q *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if q != nil {
			req.Filter = q.Filter
			req.Sorts = q.Sorts
			req.PageSize = q.PageSize
		}

		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// QueryByStatus fetches all pages whose status property equals status.
func QueryByStatus(ctx context.Context, c Client, dbID, property, status string) ([]notionapi.Page, error) {
	q := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: property,
			Status:   &notionapi.StatusFilterCondition{Equals: status},
		},
	}
	pages, err := QueryAll(ctx, c, dbID, q)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query status %q", status)
	}
	return pages, nil
}
