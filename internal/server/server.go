// Package server serves the asset dashboard over HTTP.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/mediadash/internal/asset"
	"github.com/TobiSchelling/mediadash/internal/classify"
	"github.com/TobiSchelling/mediadash/internal/metrics"
	"github.com/TobiSchelling/mediadash/internal/report"
	"github.com/TobiSchelling/mediadash/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// DefaultGridColumns is the number of cards per grid row.
const DefaultGridColumns = 5

// Classifier decides how a single asset reference is displayed.
type Classifier interface {
	Classify(ctx context.Context, ref string) classify.Result
}

// Options configures a Server.
type Options struct {
	// Source names the dataset in the page header, e.g. a file name or
	// import id.
	Source      string
	GridColumns int
}

// Server is the HTTP server for the dashboard.
type Server struct {
	records    []asset.Record
	classifier Classifier
	source     string
	columns    int
	pages      map[string]*template.Template
	mux        *http.ServeMux
}

// New creates a Server over an already cleaned dataset.
func New(records []asset.Record, classifier Classifier, opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"num":      report.Number,
		"pct":      report.Percent,
		"barWidth": barWidth,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so the pages' "content" and
	// "title" blocks do not collide.
	pageNames := []string{"index.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	columns := opts.GridColumns
	if columns <= 0 {
		columns = DefaultGridColumns
	}

	metrics.Init()
	metrics.LoadedAssets.Set(float64(len(records)))

	s := &Server{
		records:    records,
		classifier: classifier,
		source:     opts.Source,
		columns:    columns,
		pages:      pages,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/assets", s.handleAPIAssets)
	s.mux.Handle("/metrics", metrics.Handler())
}

// card is one classified record on the current page.
type card struct {
	Record asset.Record
	Result classify.Result
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type choice struct {
	Value   string
	Label   string
	Checked bool
}

type indexData struct {
	Source      string
	Snapshot    view.Snapshot
	Rows        [][]card
	Columns     int
	SummaryHTML template.HTML
	Types       []choice
	Tiers       []choice
	Sorts       []choice
	Orders      []choice
	Pages       []pageLink
	PrevURL     string
	NextURL     string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	start := time.Now()
	defer func() { metrics.ViewDuration.Observe(time.Since(start).Seconds()) }()
	metrics.ViewRequests.Inc()

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := view.Compose(s.records, f)
	cards := s.classifyPage(r.Context(), snap.Page.Records)

	data := indexData{
		Source:      s.source,
		Snapshot:    snap,
		Rows:        groupCards(cards, s.columns),
		Columns:     s.columns,
		SummaryHTML: renderMarkdown(report.SummaryTable(snap.Summary)),
		Types:       choices(snap.Types, snap.Filter.Types),
		Tiers:       choices(snap.Tiers, snap.Filter.Tiers),
		Sorts:       sortChoices(snap.Filter.Sort),
		Orders:      orderChoices(snap.Filter.Order),
	}
	if snap.Page.TotalPages > 1 {
		for n := 1; n <= snap.Page.TotalPages; n++ {
			data.Pages = append(data.Pages, pageLink{
				Number:  n,
				URL:     pageURL(snap.Filter, n),
				Current: n == snap.Page.Number,
			})
		}
		if snap.Page.HasPrev() {
			data.PrevURL = pageURL(snap.Filter, snap.Page.Number-1)
		}
		if snap.Page.HasNext() {
			data.NextURL = pageURL(snap.Filter, snap.Page.Number+1)
		}
	}

	s.render(w, "index.html", data)
}

type apiItem struct {
	Asset            string   `json:"asset"`
	AssetType        string   `json:"asset_type"`
	Performance      string   `json:"performance"`
	Kind             string   `json:"kind"`
	Title            string   `json:"title"`
	EmbedURL         string   `json:"embed_url,omitempty"`
	Impressions      float64  `json:"impressions"`
	Clicks           float64  `json:"clicks"`
	CTR              float64  `json:"ctr"`
	Cost             float64  `json:"cost"`
	Installs         float64  `json:"installs"`
	CostPerInstall   float64  `json:"cpi"`
	InstallsPerMille *float64 `json:"installs_per_mille,omitempty"`
}

type apiCategory struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type apiSummary struct {
	Count          int           `json:"count"`
	AvgClicks      float64       `json:"avg_clicks"`
	AvgImpressions float64       `json:"avg_impressions"`
	AvgInstalls    float64       `json:"avg_installs"`
	AvgCost        float64       `json:"avg_cost"`
	AvgCTR         float64       `json:"avg_ctr"`
	AvgCPI         float64       `json:"avg_cpi"`
	Distribution   []apiCategory `json:"distribution"`
}

type apiResponse struct {
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int        `json:"total"`
	NoMatches  bool       `json:"no_matches"`
	Items      []apiItem  `json:"items"`
	Summary    apiSummary `json:"summary"`
}

func (s *Server) handleAPIAssets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	metrics.ViewRequests.Inc()

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := view.Compose(s.records, f)
	resp := apiResponse{
		Page:       snap.Page.Number,
		TotalPages: snap.Page.TotalPages,
		Total:      snap.Page.TotalCount,
		NoMatches:  snap.Page.NoMatches(),
		Items:      []apiItem{},
		Summary: apiSummary{
			Count:          snap.Summary.Count,
			AvgClicks:      snap.Summary.AvgClicks,
			AvgImpressions: snap.Summary.AvgImpressions,
			AvgInstalls:    snap.Summary.AvgInstalls,
			AvgCost:        snap.Summary.AvgCost,
			AvgCTR:         snap.Summary.AvgCTR,
			AvgCPI:         snap.Summary.AvgCPI,
			Distribution:   []apiCategory{},
		},
	}
	for _, c := range snap.Summary.Distribution {
		resp.Summary.Distribution = append(resp.Summary.Distribution, apiCategory(c))
	}
	for _, c := range s.classifyPage(r.Context(), snap.Page.Records) {
		resp.Items = append(resp.Items, apiItem{
			Asset:            c.Record.Ref,
			AssetType:        c.Record.Type,
			Performance:      c.Record.Performance,
			Kind:             c.Result.Kind.String(),
			Title:            c.Result.DisplayTitle,
			EmbedURL:         c.Result.EmbedURL,
			Impressions:      c.Record.Impressions,
			Clicks:           c.Record.Clicks,
			CTR:              c.Record.CTR,
			Cost:             c.Record.Cost,
			Installs:         c.Record.Installs,
			CostPerInstall:   c.Record.CostPerInstall,
			InstallsPerMille: c.Record.InstallsPerMille,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encoding assets response", "error", err)
	}
}

// classifyPage classifies the visible records one at a time, in order.
func (s *Server) classifyPage(ctx context.Context, records []asset.Record) []card {
	cards := make([]card, 0, len(records))
	for _, rec := range records {
		cards = append(cards, card{Record: rec, Result: s.classifier.Classify(ctx, rec.Ref)})
	}
	return cards
}

func groupCards(cards []card, n int) [][]card {
	var rows [][]card
	for start := 0; start < len(cards); start += n {
		rows = append(rows, cards[start:min(start+n, len(cards))])
	}
	return rows
}

// filteredParam marks a submitted filter form, so an unchecked group
// selects nothing instead of everything.
const filteredParam = "filtered"

// parseFilter reads the filter state from query parameters. Repeated
// "type" and "perf" values select several categories; an unknown sort
// field or order is rejected, a malformed page falls back to 1.
func parseFilter(q url.Values) (view.FilterState, error) {
	f := view.FilterState{
		Types: q["type"],
		Tiers: q["perf"],
		Page:  1,
	}
	if q.Has(filteredParam) {
		if f.Types == nil {
			f.Types = []string{}
		}
		if f.Tiers == nil {
			f.Tiers = []string{}
		}
	}

	if v := q.Get("sort"); v != "" {
		field, err := view.ParseSortField(v)
		if err != nil {
			return f, err
		}
		f.Sort = field
	}
	if v := q.Get("order"); v != "" {
		order, err := view.ParseOrder(v)
		if err != nil {
			return f, err
		}
		f.Order = order
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Page = n
		}
	}
	return f, nil
}

// pageURL links to page n of the same filtered view.
func pageURL(f view.FilterState, n int) string {
	q := url.Values{}
	for _, t := range f.Types {
		q.Add("type", t)
	}
	for _, t := range f.Tiers {
		q.Add("perf", t)
	}
	if f.Sort != view.SortNone {
		q.Set("sort", f.Sort.Key())
		q.Set("order", f.Order.Key())
	}
	if isCleared(f.Types) || isCleared(f.Tiers) {
		q.Set(filteredParam, "1")
	}
	q.Set("page", strconv.Itoa(n))
	return "/?" + q.Encode()
}

func isCleared(selected []string) bool {
	return selected != nil && len(selected) == 0
}

// choices marks every known value as checked when the selection is nil.
func choices(known, selected []string) []choice {
	out := make([]choice, 0, len(known))
	for _, v := range known {
		out = append(out, choice{
			Value:   v,
			Label:   v,
			Checked: selected == nil || slices.Contains(selected, v),
		})
	}
	return out
}

func sortChoices(current view.SortField) []choice {
	fields := view.SortFields()
	out := make([]choice, 0, len(fields))
	for _, f := range fields {
		out = append(out, choice{Value: f.Key(), Label: f.String(), Checked: f == current})
	}
	return out
}

func orderChoices(current view.Order) []choice {
	orders := []view.Order{view.Descending, view.Ascending}
	out := make([]choice, 0, len(orders))
	for _, o := range orders {
		out = append(out, choice{Value: o.Key(), Label: o.String(), Checked: o == current})
	}
	return out
}

// barWidth scales count to a percentage of max for the distribution bars.
func barWidth(count, max int) int {
	if max <= 0 {
		return 0
	}
	return count * 100 / max
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the dashboard on the given port and blocks.
func Serve(records []asset.Record, classifier Classifier, opts Options, port int) error {
	srv, err := New(records, classifier, opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	slog.Info("dashboard listening", "url", "http://"+addr, "assets", len(records))
	return http.ListenAndServe(addr, srv.Handler())
}
