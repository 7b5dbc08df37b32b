package mediawiki

import (
	"context"
	"fmt"
	"net/url"
)

// RevisionCount counts the live revisions of title, following continuation.
func (c *Client) RevisionCount(ctx context.Context, title string) (int, error) {
	return c.countRevisions(ctx, title, "revisions", "rv")
}

// DeletedRevisionCount counts deleted revisions of title. It needs the
// deletedhistory right.
func (c *Client) DeletedRevisionCount(ctx context.Context, title string) (int, error) {
	return c.countRevisions(ctx, title, "deletedrevisions", "drv")
}

func (c *Client) countRevisions(ctx context.Context, title, prop, prefix string) (int, error) {
	params := url.Values{"action": {"query"}, "prop": {prop}, "titles": {title}}
	params.Set(prefix+"prop", "ids")
	params.Set(prefix+"limit", "max")
	total := 0
	for {
		var resp struct {
			Continue map[string]string `json:"continue"`
			Query    struct {
				Pages []struct {
					Revisions        []struct{} `json:"revisions"`
					DeletedRevisions []struct{} `json:"deletedrevisions"`
				} `json:"pages"`
			} `json:"query"`
		}
		if err := c.get(ctx, params, &resp); err != nil {
			return 0, fmt.Errorf("count %s of %q: %w", prop, title, err)
		}
		for _, p := range resp.Query.Pages {
			total += len(p.Revisions) + len(p.DeletedRevisions)
		}
		if len(resp.Continue) == 0 {
			return total, nil
		}
		for k, v := range resp.Continue {
			params.Set(k, v)
		}
	}
}
