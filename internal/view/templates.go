package view

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	// AdminName is shown in the top bar; empty on public pages.
	AdminName string
	Data      any
}

// PageData fills the shared template fields from the request session and pops
// its oldest flash message. An empty csrfToken falls back to the token already
// stored in the session, which the logout form needs on every page.
func PageData(r *http.Request, title, csrfToken string, data any) TemplateData {
	sess := shared.SessionFromContext(r.Context())
	td := TemplateData{Title: title, CSRFToken: csrfToken, CurrentPath: r.URL.Path, Data: data}
	if sess != nil {
		td.Flash = sess.PopFlash()
		td.AdminName = sess.Get(shared.AdminNameKey)
		if td.CSRFToken == "" {
			td.CSRFToken = sess.Get(shared.CSRFSessionKey)
		}
	}
	return td
}

// NavItem is one sidebar link.
type NavItem struct {
	Label string
	Path  string
}

// Navigation is the sidebar, in display order.
var Navigation = []NavItem{
	{Label: "Dashboard", Path: "/dashboard"},
	{Label: "Drivers", Path: "/drivers"},
	{Label: "Admins", Path: "/admins"},
	{Label: "Logistics", Path: "/logistics"},
	{Label: "Fare Configuration", Path: "/fare"},
}

// ReportNavigation lists the report screens under the Reports heading.
var ReportNavigation = []NavItem{
	{Label: "Sender", Path: "/reports/" + report.Sender},
	{Label: "Traveler", Path: "/reports/" + report.Traveler},
	{Label: "Consignment", Path: "/reports/" + report.Consignment},
	{Label: "Business Intelligence", Path: "/reports/" + report.BusinessIntelligence},
	{Label: "Travel Details", Path: "/reports/" + report.TravelDetails},
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"currency": report.FormatCurrency,
		"label":    report.Label,
		"nav":      func() []NavItem { return Navigation },
		"reportNav": func() []NavItem {
			return ReportNavigation
		},
		// active marks a sidebar link for the current path and its sub-pages.
		"active": func(current, path string) bool {
			return current == path || strings.HasPrefix(current, path+"/")
		},
		"lower": strings.ToLower,
		"cellClass": func(k report.Kind) string {
			switch k {
			case report.KindInteger, report.KindCurrency, report.KindDistance:
				return "num"
			case report.KindStatus:
				return "status"
			case report.KindRating:
				return "rating"
			case report.KindDrilldown:
				return "drill"
			default:
				return ""
			}
		},
		// slug turns a status label into a CSS class suffix.
		"slug": func(v string) string {
			return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "-")
		},
	}
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(funcMap()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
