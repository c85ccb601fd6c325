// Package bootstrap runs the archive pipeline against one page: it decides
// whether the server already rendered the list, otherwise fetches, validates,
// queries and renders the archive items, and surfaces the error panel on failure.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/archivist/internal/archive"
	"github.com/JakeFAU/archivist/internal/config"
	"github.com/JakeFAU/archivist/internal/dom"
	"github.com/JakeFAU/archivist/internal/fetch"
	"github.com/JakeFAU/archivist/internal/logging"
	"github.com/JakeFAU/archivist/internal/metrics"
	"github.com/JakeFAU/archivist/internal/render"
	"github.com/JakeFAU/archivist/internal/textutil"
)

// ErrAlreadyRan is returned by every Run after the first.
var ErrAlreadyRan = errors.New("archive pipeline already ran")

var errRender = errors.New("render archive list")

// Error kinds reported to metrics.
const (
	KindFetch     = "fetch"
	KindHTTP      = "http"
	KindMalformed = "malformed"
	KindNoItems   = "no_valid_items"
	KindRender    = "render"
)

// Clock times runs and waits between fetch retries.
type Clock interface {
	fetch.Sleeper
	Now() time.Time
}

// IDGenerator issues run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Outcome says how a run ended.
type Outcome int

// Run outcomes.
const (
	OutcomeRendered Outcome = iota
	OutcomeNoArchive
	OutcomeServerRendered
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeNoArchive:
		return "no_archive"
	case OutcomeServerRendered:
		return "server_rendered"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes one pipeline run.
type Result struct {
	RunID    string
	Outcome  Outcome
	Endpoint string
	Query    archive.Query
	// State is the list state found before reconciliation.
	State    dom.ListRenderState
	Page     archive.Page
	Matched  int
	Rejected int
	// Err is the failure behind the error panel, nil otherwise.
	Err error
	// Started and Elapsed come from the Bootstrap's Clock.
	Started time.Time
	Elapsed time.Duration
}

// Bootstrap wires the pipeline's collaborators. It runs at most once.
type Bootstrap struct {
	cfg     config.Config
	fetcher fetch.Fetcher
	clock   Clock
	ids     IDGenerator
	logger  *zap.Logger

	once sync.Once
}

// New builds a Bootstrap. fetcher performs single attempts; retries are added per run.
func New(cfg config.Config, fetcher fetch.Fetcher, clock Clock, ids IDGenerator, logger *zap.Logger) *Bootstrap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bootstrap{
		cfg:     cfg,
		fetcher: fetcher,
		clock:   clock,
		ids:     ids,
		logger:  logger.Named("bootstrap"),
	}
}

// Run executes the pipeline against doc. A second call, or a page already marked
// ready, returns ErrAlreadyRan without touching the document. Pipeline failures
// are not returned: they show the error panel and are carried in Result.Err.
func (b *Bootstrap) Run(ctx context.Context, doc *dom.Document) (Result, error) {
	var (
		res Result
		ran bool
	)
	b.once.Do(func() {
		ran = true
		if doc.Ready() {
			ran = false
			return
		}
		res = b.run(ctx, doc)
		res.Elapsed = b.clock.Now().Sub(res.Started)
		if doc.HasArchive() {
			doc.MarkReady()
		}
	})
	if !ran {
		return Result{}, ErrAlreadyRan
	}
	return res, nil
}

func (b *Bootstrap) run(ctx context.Context, doc *dom.Document) Result {
	res := Result{RunID: b.newRunID(), Started: b.clock.Now()}
	logger := b.logger.With(zap.String("run_id", res.RunID))
	dbg := logging.NewDebug(logger, b.cfg.Logging.Debug || logging.DebugEnabled(doc.URL()))

	if !doc.HasArchive() {
		logger.Debug("page has no archive section")
		res.Outcome = OutcomeNoArchive
		return res
	}
	if doc.ServerRendered() {
		logger.Debug("archive already rendered by the server")
		res.Outcome = OutcomeServerRendered
		res.State = dom.StateHydrated
		metrics.ObserveRender(dom.StateHydrated.String(), 0)
		return res
	}

	res.Endpoint = textutil.BuildArchiveEndpoint(doc.URL(), b.cfg.Archive.Endpoint, b.version(doc))
	renderer := render.New(doc, b.cfg.Archive.Locale, logger)

	if err := b.load(ctx, doc, renderer, logger, dbg, &res); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		kind := errorKind(err)
		metrics.ObservePipelineError(kind)
		dbg.Error("archive pipeline failed",
			zap.String("kind", kind),
			zap.String("endpoint", res.Endpoint),
			zap.Error(err),
		)
		if panelErr := renderer.ShowError(); panelErr != nil {
			logger.Error("failed to show error panel", zap.Error(panelErr))
		}
		return res
	}

	res.Outcome = OutcomeRendered
	logger.Info("archive rendered",
		zap.String("state", res.State.String()),
		zap.Int("matched", res.Matched),
		zap.Int("page", res.Page.Page),
		zap.Int("pages", res.Page.Pages),
		zap.Int("rows", len(res.Page.Slice)),
		zap.Duration("elapsed", b.clock.Now().Sub(res.Started)),
	)
	return res
}

func (b *Bootstrap) load(
	ctx context.Context,
	doc *dom.Document,
	renderer *render.Renderer,
	logger *zap.Logger,
	dbg logging.Debug,
	res *Result,
) error {
	retrying := fetch.NewRetrying(b.fetcher, fetch.PolicyFromConfig(b.cfg.Fetch), b.clock, logger, dbg)
	resp, err := retrying.Fetch(ctx, res.Endpoint)
	if err != nil {
		return fmt.Errorf("fetch archive data: %w", err)
	}

	payload, err := archive.Decode(resp.Body)
	if err != nil {
		return fmt.Errorf("decode archive data: %w", err)
	}
	report := archive.ValidateArchiveData(payload, dbg.Named("validate"))
	res.Rejected = len(report.Rejected)
	if err := report.Err(); err != nil {
		return err
	}

	res.Query = archive.ParseQuery(doc.URL().Query(), doc.Attr(dom.AttrPageSize), b.pageSize())
	matched := archive.SortItems(archive.FilterItems(report.Items, res.Query.Q, res.Query.Kind))
	res.Matched = len(matched)
	res.Page = archive.Paginate(matched, res.Query.Page, res.Query.PageSize)

	state, err := renderer.RenderList(res.Page.Slice, res.Query.Q)
	res.State = state
	if err != nil {
		return fmt.Errorf("%w: %w", errRender, err)
	}
	renderer.UpdateHeroCount(res.Matched)
	renderer.UpdatePager(res.Page)
	return nil
}

// version picks the cache-busting token: the archive's own version, then the
// app version, then the configured one.
func (b *Bootstrap) version(doc *dom.Document) string {
	if v := doc.Attr(dom.AttrArchiveVersion); v != "" {
		return v
	}
	if v := doc.Attr(dom.AttrAppVersion); v != "" {
		return v
	}
	return b.cfg.Archive.Version
}

func (b *Bootstrap) pageSize() int {
	if b.cfg.Archive.PageSize > 0 {
		return b.cfg.Archive.PageSize
	}
	return config.DefaultPageSize
}

func (b *Bootstrap) newRunID() string {
	if b.ids == nil {
		return ""
	}
	id, err := b.ids.NewID()
	if err != nil {
		b.logger.Warn("failed to generate run id", zap.Error(err))
		return ""
	}
	return id
}

func errorKind(err error) string {
	var statusErr *fetch.StatusError
	switch {
	case errors.As(err, &statusErr):
		return KindHTTP
	case errors.Is(err, archive.ErrMalformedData):
		return KindMalformed
	case errors.Is(err, archive.ErrNoValidItems):
		return KindNoItems
	case errors.Is(err, errRender):
		return KindRender
	default:
		return KindFetch
	}
}
