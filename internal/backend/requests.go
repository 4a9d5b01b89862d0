package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Report sources served by the /report family.
const (
	ReportSender      = "/report/sender-report"
	ReportTraveler    = "/report/traveler-report"
	ReportConsignment = "/report/consignment-consolidated-report"
	ReportBusiness    = "/report/business-intelligence"
	ReportTravel      = "/report/travel-details"
)

// Login exchanges admin credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out LoginResponse
	err := c.do(ctx, call{
		endpoint: "login",
		method:   http.MethodPost,
		path:     c.loginPath,
		body:     LoginRequest{Email: email, Password: password},
	}, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", errors.New("backend: login response carried no token")
	}
	return out.Token, nil
}

// Report fetches one page of a /report endpoint. Zero page or limit is omitted.
func (a *AuthedClient) Report(ctx context.Context, path string, page, limit int) (ReportPage, error) {
	var out ReportPage
	err := a.get(ctx, strings.TrimPrefix(path, "/report/"), path, pageQuery(page, limit, nil), &out)
	return out, err
}

// DashboardStats fetches aggregate counters.
func (a *AuthedClient) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats
	err := a.get(ctx, "dashboard-stats", "/admin/getDashboardStats", nil, &out)
	return out, err
}

// TotalUsers fetches the registered user count.
func (a *AuthedClient) TotalUsers(ctx context.Context) (TotalUsers, error) {
	var out TotalUsers
	err := a.get(ctx, "total-users", "/admin/getTotalUsers", nil, &out)
	return out, err
}

// TotalEarnings fetches platform earnings.
func (a *AuthedClient) TotalEarnings(ctx context.Context) (TotalEarnings, error) {
	var out TotalEarnings
	err := a.get(ctx, "total-earnings", "/admin/getTotalEarnings", nil, &out)
	return out, err
}

// TransactionHistory fetches one page of transactions.
func (a *AuthedClient) TransactionHistory(ctx context.Context, page, limit int, search string) (TransactionPage, error) {
	var out TransactionPage
	q := pageQuery(page, limit, nil)
	q.Set("search", search)
	err := a.get(ctx, "transactions", "/admin/getTransactionHistory", q, &out)
	return out, err
}

// Admins lists administrators matching search.
func (a *AuthedClient) Admins(ctx context.Context, search string) (AdminList, error) {
	var out AdminList
	q := url.Values{}
	q.Set("search", search)
	err := a.get(ctx, "admins", "/admin/getAllAdmins", q, &out)
	return out, err
}

// DeleteAdmin removes an administrator.
func (a *AuthedClient) DeleteAdmin(ctx context.Context, id string) error {
	return a.send(ctx, "delete-admin", http.MethodDelete, "/admin/deleteAdmin/"+url.PathEscape(id), nil, nil)
}

// FareDetails fetches the fare configuration.
func (a *AuthedClient) FareDetails(ctx context.Context) (FareConfig, error) {
	var out FareConfig
	err := a.get(ctx, "fare-details", "/admin/getFareDetails", nil, &out)
	return out, err
}

// UpdateFareDetails replaces the fare configuration with cfg.
func (a *AuthedClient) UpdateFareDetails(ctx context.Context, cfg FareConfig) (UpdateResult, error) {
	var out UpdateResult
	err := a.send(ctx, "update-fare", http.MethodPut, "/admin/updateFareDetails", cfg, &out)
	return out, err
}

// TravelSummaryFilter narrows the logistics listing.
type TravelSummaryFilter struct {
	Search     string
	DriverName string
	Date       string
}

// TravelSummaries fetches one page of trip summaries.
func (a *AuthedClient) TravelSummaries(ctx context.Context, page, limit int, f TravelSummaryFilter) (TravelSummaryPage, error) {
	var out TravelSummaryPage
	q := pageQuery(page, limit, map[string]string{
		"driverName": f.DriverName,
		"date":       f.Date,
	})
	q.Set("search", f.Search)
	err := a.get(ctx, "travel-summary", "/admin/allTravelSummary", q, &out)
	return out, err
}

// DriverTravelDetails fetches one page of drivers.
func (a *AuthedClient) DriverTravelDetails(ctx context.Context, page, limit int, search string) (DriverPage, error) {
	var out DriverPage
	q := pageQuery(page, limit, nil)
	q.Set("search", search)
	err := a.get(ctx, "driver-details", "/t/getUserTravelDetails", q, &out)
	return out, err
}

// DriverTravelHistory fetches all trips of the driver with phone.
func (a *AuthedClient) DriverTravelHistory(ctx context.Context, phone string) (TravelHistory, error) {
	var out TravelHistory
	err := a.get(ctx, "travel-history", "/t/travelhistory/"+url.PathEscape(phone), nil, &out)
	return out, err
}

// DeleteDriver removes a driver account.
func (a *AuthedClient) DeleteDriver(ctx context.Context, id string) error {
	return a.send(ctx, "delete-driver", http.MethodDelete, "/editp/delete/"+url.PathEscape(id), nil, nil)
}
