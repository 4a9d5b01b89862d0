package report

import (
	"context"
	"strings"

	"github.com/travelearn/tne-admin/internal/backend"
)

// reportSource reads one of the canonical `{data, pagination}` endpoints.
func reportSource(path string) Source {
	return func(ctx context.Context, api *backend.AuthedClient, q Query) (Page, error) {
		resp, err := api.Report(ctx, path, q.Page, q.Limit)
		if err != nil {
			return Page{}, err
		}
		return Page{
			Rows:       toRows(resp.Data),
			Total:      resp.Pagination.TotalRecords,
			TotalPages: resp.Pagination.TotalPages,
		}, nil
	}
}

func transactionsSource(ctx context.Context, api *backend.AuthedClient, q Query) (Page, error) {
	resp, err := api.TransactionHistory(ctx, q.Page, q.Limit, q.Search)
	if err != nil {
		return Page{}, err
	}
	return Page{Rows: toRows(resp.Data), Total: resp.Total}, nil
}

// adminsSource pages the unpaginated admin list locally.
func adminsSource(ctx context.Context, api *backend.AuthedClient, q Query) (Page, error) {
	resp, err := api.Admins(ctx, q.Search)
	if err != nil {
		return Page{}, err
	}
	rows := toRows(resp.Admins)
	total := len(rows)
	start := (q.Page - 1) * q.Limit
	if q.Limit <= 0 || start < 0 {
		return Page{Rows: rows, Total: total}, nil
	}
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return Page{Rows: rows[start:end], Total: total}, nil
}

func travelSummarySource(ctx context.Context, api *backend.AuthedClient, q Query) (Page, error) {
	resp, err := api.TravelSummaries(ctx, q.Page, q.Limit, backend.TravelSummaryFilter{
		Search:     q.Search,
		DriverName: q.Params["driverName"],
		Date:       q.Params["date"],
	})
	if err != nil {
		return Page{}, err
	}
	return Page{Rows: toRows(resp.Data), Total: resp.Pagination.Total}, nil
}

// driversSource adds a display name composed from the name parts.
func driversSource(ctx context.Context, api *backend.AuthedClient, q Query) (Page, error) {
	resp, err := api.DriverTravelDetails(ctx, q.Page, q.Limit, q.Search)
	if err != nil {
		return Page{}, err
	}
	rows := toRows(resp.Data)
	for _, row := range rows {
		row["fullName"] = driverName(row)
	}
	return Page{Rows: rows, Total: resp.TotalCount}, nil
}

func driverName(row Row) string {
	first, _ := row.Raw("firstName")
	if first == "" {
		first, _ = row.Raw("username")
	}
	last, _ := row.Raw("lastName")
	return strings.TrimSpace(first + " " + last)
}
