package report

import (
	"context"
	"fmt"
)

// maxCollectPages bounds a full export against a backend that never reports
// its last page.
const maxCollectPages = 1000

// Collected is the result of walking every page of a report.
type Collected struct {
	Rows  []Row
	Pages int
}

// CollectAll fetches pages 1..totalPages with the same query and applies the
// local filter to the concatenated rows. progress, when set, is called after
// each page.
func CollectAll(ctx context.Context, def *Definition, fetch Fetcher, q Query, filter Filter, progress func(page, total int)) (Collected, error) {
	q.Limit = def.perPage()
	var out Collected
	total := 1
	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		q.Page = page
		result, err := fetch(ctx, q)
		if err != nil {
			return out, fmt.Errorf("report: fetch page %d of %s: %w", page, def.Name, err)
		}
		out.Rows = append(out.Rows, filter.Apply(result.Rows)...)
		out.Pages = page
		if page == 1 {
			total = lastPage(result, q.Limit)
			if total > maxCollectPages {
				total = maxCollectPages
			}
		}
		if progress != nil {
			progress(page, total)
		}
		if len(result.Rows) == 0 {
			break
		}
	}
	return out, nil
}

func lastPage(p Page, limit int) int {
	if p.TotalPages > 0 {
		return p.TotalPages
	}
	if limit <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + limit - 1) / limit
}
