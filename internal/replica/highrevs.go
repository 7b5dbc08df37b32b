package replica

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PageCount is one row of the revision ranking.
type PageCount struct {
	ID        int64
	Title     string
	Namespace int
	Count     int64
}

// Query parameters for HighRevisionPages.
type Query struct {
	Namespaces   []int
	MinRevisions int
	Limit        int
	// ExcludeCategory drops pages in this category (without the prefix,
	// underscores for spaces).
	ExcludeCategory string
}

// DefaultQuery ranks the content and project namespaces 0 through 15,
// leaving out user pages (2) and user talk (3), and skips pages whose
// history was split off.
func DefaultQuery() Query {
	return Query{
		Namespaces:      []int{0, 1, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		MinRevisions:    4500,
		Limit:           500,
		ExcludeCategory: "履歴を分離したページ",
	}
}

func (q Query) sql() (string, []any, error) {
	if len(q.Namespaces) == 0 {
		return "", nil, fmt.Errorf("replica: namespace allow-list is empty")
	}
	if q.Limit <= 0 {
		return "", nil, fmt.Errorf("replica: limit must be positive")
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(q.Namespaces)), ",")
	args := make([]any, 0, len(q.Namespaces)+3)
	for _, ns := range q.Namespaces {
		args = append(args, ns)
	}
	args = append(args, q.ExcludeCategory, q.MinRevisions, q.Limit)
	stmt := `
SELECT p.page_id, p.page_title, p.page_namespace, COUNT(*) AS revision_count
FROM page p
INNER JOIN revision r ON p.page_id = r.rev_page
WHERE p.page_namespace IN (` + marks + `)
  AND p.page_is_redirect = 0
  AND NOT EXISTS (
    SELECT 1 FROM categorylinks WHERE cl_from = p.page_id AND cl_to = ?
  )
GROUP BY p.page_id, p.page_title, p.page_namespace
HAVING COUNT(*) >= ?
ORDER BY revision_count DESC
LIMIT ?`
	return stmt, args, nil
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// HighRevisionPages ranks pages by revision count, highest first.
func HighRevisionPages(ctx context.Context, db Querier, q Query) ([]PageCount, error) {
	stmt, args, err := q.sql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("replica: high revision query: %w", err)
	}
	defer rows.Close()

	var out []PageCount
	for rows.Next() {
		var (
			pc    PageCount
			title []byte
		)
		if err := rows.Scan(&pc.ID, &title, &pc.Namespace, &pc.Count); err != nil {
			return nil, err
		}
		pc.Title = string(title)
		out = append(out, pc)
	}
	return out, rows.Err()
}
