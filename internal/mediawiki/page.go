package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Page is a snapshot of a page's latest revision.
type Page struct {
	Title  string
	Exists bool
	// Text is empty both for missing pages and for existing empty pages;
	// Exists tells them apart.
	Text       string
	RevisionID int64
	// Timestamp is the latest revision's timestamp, used as basetimestamp.
	Timestamp time.Time
	// StartTimestamp is the server time of the read, used as starttimestamp.
	StartTimestamp time.Time
}

type queryPages struct {
	CurTimestamp time.Time `json:"curtimestamp"`
	Query        struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Invalid   bool   `json:"invalid"`
			Revisions []struct {
				RevID     int64     `json:"revid"`
				Timestamp time.Time `json:"timestamp"`
				Slots     struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// Read returns the latest revision of title.
func (c *Client) Read(ctx context.Context, title string) (Page, error) {
	params := url.Values{
		"action":       {"query"},
		"prop":         {"revisions"},
		"rvprop":       {"content|timestamp|ids"},
		"rvslots":      {"main"},
		"titles":       {title},
		"curtimestamp": {"1"},
	}
	var resp queryPages
	if err := c.get(ctx, params, &resp); err != nil {
		return Page{}, fmt.Errorf("read %q: %w", title, err)
	}
	if len(resp.Query.Pages) == 0 {
		return Page{}, fmt.Errorf("read %q: no page in response", title)
	}
	p := resp.Query.Pages[0]
	if p.Invalid {
		return Page{}, permanent(fmt.Errorf("read %q: invalid title", title))
	}
	page := Page{Title: p.Title, StartTimestamp: resp.CurTimestamp}
	if p.Missing || len(p.Revisions) == 0 {
		return page, nil
	}
	rev := p.Revisions[0]
	page.Exists = true
	page.Text = rev.Slots.Main.Content
	page.RevisionID = rev.RevID
	page.Timestamp = rev.Timestamp
	return page, nil
}
