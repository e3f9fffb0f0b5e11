// Package responder runs the response pipeline: detect the case states, resolve the
// template, render it.
//
// Every call reads the catalog once from its source, so a hot reload in the middle
// of a request never mixes two catalogs. The detect and resolve steps are pure; only
// this package logs, counts metrics and emits audit events.
//
// Render data, from lowest to highest precedence:
//
//  1. a shallow copy of the facts
//  2. every selection flag as a top-level key
//  3. intention: {primary, secondary, attributes}
//  4. state: the primary state name ("" when nothing matched)
//  5. states: all matched state names in priority order
//
// Testing Guide:
//
// Build a catalog with testutil.SampleCatalog or testutil.MustLoad, wrap it with
// Static, and pass audit.MemorySink through audit.NewService when the test needs to
// inspect audit events.
package responder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fouedh91760/a-level-saver-sub001/internal/audit"
	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
	"github.com/fouedh91760/a-level-saver-sub001/internal/detector"
	"github.com/fouedh91760/a-level-saver-sub001/internal/engine"
	"github.com/fouedh91760/a-level-saver-sub001/internal/intent"
	"github.com/fouedh91760/a-level-saver-sub001/internal/render"
	"github.com/fouedh91760/a-level-saver-sub001/internal/resolver"
	"github.com/fouedh91760/a-level-saver-sub001/internal/telemetry"
)

// CatalogSource yields the active catalog. snapshot.Holder implements it.
type CatalogSource interface {
	Catalog() *catalog.Catalog
}

// Static is a CatalogSource that always returns the same catalog.
type Static struct{ C *catalog.Catalog }

func (s Static) Catalog() *catalog.Catalog { return s.C }

// Auditor receives one event per response. audit.Service implements it.
type Auditor interface {
	Log(event audit.Event)
}

// Response is the outcome of one pipeline run.
type Response struct {
	Text           string             `json:"text"`
	TemplateID     string             `json:"templateId"`
	Flags          map[string]bool    `json:"flags"`
	States         []string           `json:"states"`
	Selection      resolver.Selection `json:"selection"`
	Issues         []render.Issue     `json:"issues,omitempty"`
	CatalogVersion string             `json:"catalogVersion"`
	RenderedAt     time.Time          `json:"renderedAt"`
}

// Resolution is the outcome of detect and resolve without rendering.
type Resolution struct {
	Classification detector.Classification
	Selection      resolver.Selection
	CatalogVersion string
}

// Responder runs the pipeline against the catalog its source currently publishes.
type Responder struct {
	catalogs CatalogSource
	auditor  Auditor
	log      zerolog.Logger
	maxDepth int
	now      func() time.Time
}

// Option configures a Responder.
type Option func(*Responder)

// WithLogger sets the logger for render issues and default fallbacks.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Responder) { r.log = log }
}

// WithAuditor sends one audit event per response to a.
func WithAuditor(a Auditor) Option {
	return func(r *Responder) { r.auditor = a }
}

// WithMaxPartialDepth bounds partial nesting during rendering.
func WithMaxPartialDepth(depth int) Option {
	return func(r *Responder) { r.maxDepth = depth }
}

// New creates a Responder reading catalogs from src.
func New(src CatalogSource, opts ...Option) *Responder {
	r := &Responder{
		catalogs: src,
		log:      zerolog.Nop(),
		maxDepth: render.DefaultMaxDepth,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Detect classifies facts against the current catalog.
func (r *Responder) Detect(facts engine.Context) (detector.Classification, string) {
	cat := r.catalogs.Catalog()
	return detector.DetectAll(facts, cat.States()), cat.Version()
}

// Resolve classifies facts and resolves the template for in.
func (r *Responder) Resolve(facts engine.Context, in intent.Intention) Resolution {
	return r.resolve(r.catalogs.Catalog(), facts, in)
}

func (r *Responder) resolve(cat *catalog.Catalog, facts engine.Context, in intent.Intention) Resolution {
	c := detector.DetectAll(facts, cat.States())
	sel := resolver.Resolve(c, in, cat)
	return Resolution{Classification: c, Selection: sel, CatalogVersion: cat.Version()}
}

// Respond runs detect, resolve and render. It never fails: missing data renders
// empty and an unmatched case falls back to the default template.
func (r *Responder) Respond(ctx context.Context, facts engine.Context, in intent.Intention) Response {
	cat := r.catalogs.Catalog()
	in = in.Normalize()
	res := r.resolve(cat, facts, in)
	sel := res.Selection
	names := res.Classification.Names()

	log := r.log.With().
		Str("catalog_version", cat.Version()).
		Str("template_id", sel.TemplateID).
		Str("primary_intention", in.Primary).
		Logger()

	telemetry.Resolutions.WithLabelValues(string(sel.Tier)).Inc()
	if sel.Default {
		telemetry.DefaultFallbacks.Inc()
		log.Debug().Strs("states", names).Strs("secondary_intentions", in.Secondary).Msg("no resolution entry matched, using default template")
	}

	resp := Response{
		TemplateID:     sel.TemplateID,
		Flags:          sel.Flags,
		States:         names,
		Selection:      sel,
		CatalogVersion: cat.Version(),
		RenderedAt:     r.now().UTC(),
	}
	if resp.States == nil {
		resp.States = []string{}
	}

	tmpl, ok := cat.Template(sel.TemplateID)
	if !ok {
		log.Error().Msg("selected template not in catalog")
	} else {
		resp.Text = render.RenderWith(tmpl, Data(facts, in, res.Classification, sel), cat.Partial, render.Options{
			MaxDepth: r.maxDepth,
			Escape:   cat.Escaper(),
			OnIssue: func(issue render.Issue) {
				resp.Issues = append(resp.Issues, issue)
				telemetry.RenderIssues.WithLabelValues(string(issue.Kind)).Inc()
				log.Warn().
					Str("kind", string(issue.Kind)).
					Str("partial", issue.Partial).
					Str("template", issue.Template).
					Int("depth", issue.Depth).
					Msg("partial rendered empty")
			},
		})
	}

	if r.auditor != nil {
		r.auditor.Log(audit.NewEventBuilder(ctx, audit.ActionResponded).
			ForCatalog(cat.Version()).
			WithStates(names).
			WithIntention(in).
			WithSelection(sel).
			WithRenderIssues(len(resp.Issues)).
			Build())
	}

	return resp
}

// Data builds the render data for one response. The facts map is not modified.
func Data(facts engine.Context, in intent.Intention, c detector.Classification, sel resolver.Selection) map[string]any {
	data := make(map[string]any, len(facts)+len(sel.Flags)+3)
	for k, v := range facts {
		data[k] = v
	}
	for k, v := range sel.Flags {
		data[k] = v
	}

	secondary := make([]any, len(in.Secondary))
	for i, s := range in.Secondary {
		secondary[i] = s
	}
	attributes := in.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	data["intention"] = map[string]any{
		"primary":    in.Primary,
		"secondary":  secondary,
		"attributes": attributes,
	}

	var primary string
	if p := resolver.PrimaryState(c); p != nil {
		primary = p.Name
	}
	data["state"] = primary

	names := c.Names()
	states := make([]any, len(names))
	for i, n := range names {
		states[i] = n
	}
	data["states"] = states
	return data
}
