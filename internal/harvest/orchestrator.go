// Package harvest sequences a whole run: login, enumerate entities, fetch
// and parse detail pages, acquire documents, persist metadata, and render
// the run report. Entities are processed strictly one at a time with
// configured delays between requests.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-harvester/internal/config"
	"github.com/jonathan/resume-harvester/internal/download"
	"github.com/jonathan/resume-harvester/internal/identity"
	"github.com/jonathan/resume-harvester/internal/journal"
	"github.com/jonathan/resume-harvester/internal/metadata"
	"github.com/jonathan/resume-harvester/internal/naming"
	"github.com/jonathan/resume-harvester/internal/scrape"
	"github.com/jonathan/resume-harvester/internal/session"
	"github.com/jonathan/resume-harvester/internal/shard"
)

// Mode selects how the run enumerates entities.
type Mode string

const (
	// ModeFullCrawl walks list pages until exhaustion or the page cap.
	ModeFullCrawl Mode = "full"
	// ModeIDs processes an explicit set of navigation ids.
	ModeIDs Mode = "ids"
)

// Options parameterizes one run.
type Options struct {
	Kind identity.Kind
	Mode Mode

	// StartPage is the 1-based first list page for a full crawl.
	StartPage int

	// NavigationIDs drives ModeIDs. Values must already be normalized to the
	// navigation space.
	NavigationIDs []int64
}

// Orchestrator wires the harvesting components for one run and owns the
// run journal.
type Orchestrator struct {
	cfg        *config.Config
	client     session.Client
	lists      *scrape.ListParser
	details    *scrape.DetailParser
	reconciler *identity.Reconciler
	acquirer   *download.Acquirer
	meta       *metadata.Writer
	jrnl       *journal.Journal

	candidates []*scrape.Candidate
	cases      []*scrape.JobCase

	// sleep is replaceable so tests run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an orchestrator over an authenticated-capable session client.
func New(cfg *config.Config, client session.Client) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		client:     client,
		lists:      scrape.NewListParser(cfg.BaseURL),
		details:    scrape.NewDetailParser(cfg.BaseURL),
		reconciler: identity.NewReconciler(cfg.CandidateOffset, cfg.CaseOffset, cfg.ClientOffset),
		acquirer:   download.NewAcquirer(client, cfg.MaxRetries, cfg.RetryDelay),
		meta:       metadata.NewWriter(cfg.MetadataDir),
		jrnl:       journal.New(),
		sleep:      sleepCtx,
	}
}

// Journal exposes the run journal, mainly for callers rendering summaries.
func (o *Orchestrator) Journal() *journal.Journal {
	return o.jrnl
}

// Run executes one harvest. Only authentication failure aborts the run; any
// other per-entity error is journaled and the run continues. The report is
// written and the session closed on every path out.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (err error) {
	defer func() {
		o.finish(opts, err)
	}()

	if err = o.client.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	slog.Info("authenticated", "base_url", o.cfg.BaseURL)

	switch opts.Mode {
	case ModeIDs:
		err = o.runIDs(ctx, opts)
	default:
		err = o.runFullCrawl(ctx, opts)
	}
	return err
}

// finish writes the report and closes the session regardless of how the run
// ended.
func (o *Orchestrator) finish(opts Options, runErr error) {
	o.exportConsolidated()

	params := map[string]string{
		"mode": string(opts.Mode),
		"kind": string(opts.Kind),
	}
	if opts.Mode == ModeIDs {
		params["ids"] = strconv.Itoa(len(opts.NavigationIDs))
	}
	if runErr != nil {
		params["aborted"] = runErr.Error()
	}

	if path, err := o.jrnl.Report(o.cfg.ResultsDir, params); err != nil {
		slog.Error("failed to write run report", "error", err)
	} else {
		slog.Info("run report written", "path", path)
	}

	if err := o.client.Close(); err != nil {
		slog.Warn("session close failed", "error", err)
	}
}

func (o *Orchestrator) exportConsolidated() {
	if len(o.candidates) > 0 {
		if jsonPath, csvPath, err := o.meta.Candidates(o.candidates); err != nil {
			slog.Error("consolidated candidate export failed", "error", err)
		} else {
			slog.Info("consolidated candidate export written", "json", jsonPath, "csv", csvPath)
		}
	}
	if len(o.cases) > 0 {
		if jsonPath, csvPath, err := o.meta.Cases(o.cases); err != nil {
			slog.Error("consolidated case export failed", "error", err)
		} else {
			slog.Info("consolidated case export written", "json", jsonPath, "csv", csvPath)
		}
	}
}

// runFullCrawl walks list pages until an empty page, a missing next link, or
// the configured page cap.
func (o *Orchestrator) runFullCrawl(ctx context.Context, opts Options) error {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}

	visited := 0
	for {
		listURL := scrape.ListURL(o.cfg.BaseURL, opts.Kind, page)
		pg, err := o.client.Get(ctx, listURL)
		if err != nil {
			if isAuthFailure(err) {
				return err
			}
			o.jrnl.Failure(journal.Subject{ID: listURL, Label: fmt.Sprintf("page %d", page)}, "list-fetch", err.Error())
			return nil
		}
		doc, err := pg.Document()
		if err != nil {
			o.jrnl.Failure(journal.Subject{ID: listURL, Label: fmt.Sprintf("page %d", page)}, "list-parse", err.Error())
			return nil
		}

		stubs := o.lists.Parse(doc, opts.Kind)
		if len(stubs) == 0 {
			slog.Info("list page empty, crawl complete", "page", page)
			return nil
		}
		slog.Info("list page parsed", "page", page, "entities", len(stubs))

		for _, stub := range stubs {
			if err := o.sleep(ctx, o.cfg.RequestDelay); err != nil {
				return err
			}
			if err := o.processOne(ctx, opts.Kind, stub.NavigationID, stub.DetailURL); err != nil {
				return err
			}
		}

		visited++
		if o.cfg.MaxPages > 0 && visited >= o.cfg.MaxPages {
			slog.Info("page cap reached", "pages", visited)
			return nil
		}
		if !scrape.HasNext(doc, page) {
			return nil
		}
		page++
		if err := o.sleep(ctx, o.cfg.PageDelay); err != nil {
			return err
		}
	}
}

// runIDs processes an explicit navigation-id set.
func (o *Orchestrator) runIDs(ctx context.Context, opts Options) error {
	for i, navID := range opts.NavigationIDs {
		if i > 0 {
			if err := o.sleep(ctx, o.cfg.RequestDelay); err != nil {
				return err
			}
		}
		detailURL := scrape.DetailURL(o.cfg.BaseURL, opts.Kind, navID)
		if err := o.processOne(ctx, opts.Kind, navID, detailURL); err != nil {
			return err
		}
	}
	return nil
}

// processOne handles a single entity. Its returned error is non-nil only for
// run-fatal conditions; everything else lands in the journal.
func (o *Orchestrator) processOne(ctx context.Context, kind identity.Kind, navID int64, detailURL string) error {
	subject := journal.Subject{ID: strconv.FormatInt(navID, 10)}

	pg, err := o.client.Get(ctx, detailURL)
	if err != nil {
		if isAuthFailure(err) {
			return err
		}
		o.jrnl.Failure(subject, "detail-fetch", err.Error())
		return nil
	}
	doc, err := pg.Document()
	if err != nil {
		o.jrnl.Failure(subject, "detail-parse", err.Error())
		return nil
	}

	// Raw markup is fetched separately because rendered pages can disagree
	// with the server's dates. A raw fetch failure is not fatal to the
	// entity: the parser falls back to rendered markup and flags the dates.
	var rawDoc *goquery.Document
	if rawPg, rawErr := o.client.GetRaw(ctx, detailURL); rawErr == nil {
		if d, derr := rawPg.Document(); derr == nil {
			rawDoc = d
		}
	}

	switch kind {
	case identity.KindCase:
		return o.processCase(doc, rawDoc, navID, detailURL)
	default:
		return o.processCandidate(ctx, doc, rawDoc, navID, detailURL)
	}
}

func (o *Orchestrator) processCandidate(ctx context.Context, doc, rawDoc *goquery.Document, navID int64, detailURL string) error {
	c, warnings := o.details.ParseCandidate(doc, navID, rawDoc)
	c.DetailURL = detailURL

	subject := journal.Subject{ID: c.CanonicalID.String(), Label: c.Name}
	for _, w := range warnings {
		o.jrnl.Warn(subject, "extraction", w.String())
	}
	o.verifyIdentity(subject, identity.KindCandidate, navID, c.CanonicalID)

	o.candidates = append(o.candidates, c)

	destDir, err := shard.Materialize(o.cfg.ResumesDir, c.CanonicalID.Value, o.cfg.ShardUnit)
	if err != nil {
		o.jrnl.Failure(subject, "storage", err.Error())
		return nil
	}
	baseName := naming.ResumeBaseName(c.CanonicalID.Value, c.Name)

	if c.DocumentURL == "" {
		o.jrnl.Skip(subject, "no resume attached to detail page")
		o.writeSidecar(subject, filepath.Join(destDir, baseName), c)
		return nil
	}

	out, err := o.acquirer.Acquire(ctx, c.DocumentURL, destDir, baseName)
	if err != nil {
		if isAuthFailure(err) {
			return err
		}
		o.jrnl.Failure(subject, "download", err.Error())
		return nil
	}

	switch out.Status {
	case download.StatusSkipped:
		o.jrnl.Skip(subject, "")
	default:
		o.jrnl.Success(subject, out.SizeBytes)
	}
	o.writeSidecar(subject, out.FinalPath, c)
	slog.Info("candidate harvested", "canonical_id", c.CanonicalID.Value, "status", string(out.Status), "path", out.FinalPath)
	return nil
}

func (o *Orchestrator) processCase(doc, rawDoc *goquery.Document, navID int64, detailURL string) error {
	jc, warnings := o.details.ParseCase(doc, navID, rawDoc)
	jc.DetailURL = detailURL

	subject := journal.Subject{ID: jc.CanonicalID.String(), Label: jc.CompanyName + " - " + jc.Title}
	for _, w := range warnings {
		o.jrnl.Warn(subject, "extraction", w.String())
	}
	o.verifyIdentity(subject, identity.KindCase, navID, jc.CanonicalID)

	o.cases = append(o.cases, jc)

	destDir, err := shard.Materialize(o.cfg.MetadataDir, jc.CanonicalID.Value, o.cfg.ShardUnit)
	if err != nil {
		o.jrnl.Failure(subject, "storage", err.Error())
		return nil
	}
	baseName := naming.CaseBaseName(jc.CanonicalID.Value, jc.CompanyName, jc.Title)
	o.writeSidecar(subject, filepath.Join(destDir, baseName), jc)

	o.jrnl.Success(subject, 0)
	slog.Info("case harvested", "canonical_id", jc.CanonicalID.Value, "title", jc.Title)
	return nil
}

// verifyIdentity cross-checks a content-resolved canonical id against the
// configured offset. A mismatch is journal material, never a failure.
func (o *Orchestrator) verifyIdentity(subject journal.Subject, kind identity.Kind, navID int64, id scrape.ID) {
	if id.Provenance != scrape.ProvenanceResolved {
		return
	}
	if !o.reconciler.Verify(navID, id.Value, kind) {
		o.jrnl.Warn(subject, "identity",
			fmt.Sprintf("canonical id %d is inconsistent with navigation id %d and offset %d",
				id.Value, navID, o.reconciler.Offset(kind)))
	}
}

func (o *Orchestrator) writeSidecar(subject journal.Subject, documentPath string, record any) {
	if _, err := metadata.Sidecar(documentPath, record); err != nil {
		o.jrnl.Warn(subject, "metadata", err.Error())
	}
}

// isAuthFailure reports whether an error means the session is gone. Auth
// failures are the only run-fatal error class.
func isAuthFailure(err error) bool {
	var ae *session.AuthError
	return errors.As(err, &ae) || errors.Is(err, session.ErrSessionUnavailable)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
