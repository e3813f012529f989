// Package pipeline provides the fetch → extract → build → render pipeline
// shared by the CLI and web front ends.
//
// The pipeline is a strictly linear, single-threaded sequence:
//
//  1. Fetch: retrieve all lists and columns for one site from the Graph API
//  2. Extract: infer relationships from lookup columns
//  3. Build: assemble the schema model
//  4. Render: produce a PNG or SVG diagram
//
// Centralizing this keeps behavior identical whether a diagram is requested
// from the command line or through the web form.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, logger)
//	result, err := runner.Run(ctx, pipeline.Options{
//	    SiteID: siteID,
//	    Format: pipeline.FormatPNG,
//	    Output: "schema.png",
//	})
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/listgraph/listgraph/pkg/errors"
	"github.com/listgraph/listgraph/pkg/graphapi"
	"github.com/listgraph/listgraph/pkg/render"
	"github.com/listgraph/listgraph/pkg/schema"
)

// Output formats, re-exported for front ends.
const (
	FormatPNG = render.FormatPNG
	FormatSVG = render.FormatSVG
)

// Fetcher retrieves list metadata for a site. *graphapi.Client satisfies it;
// tests inject fakes.
type Fetcher interface {
	Lists(ctx context.Context, siteID string) ([]schema.List, error)
}

// Options configures a single pipeline invocation.
type Options struct {
	// SiteID identifies the SharePoint site to diagram. Required.
	SiteID string

	// Format is the output format: "png" (default) or "svg".
	Format string

	// Output is the file path to write the diagram to. Empty means the
	// artifact is returned in the Result but not written to disk.
	Output string
}

// Stats captures timing and size information for one run.
type Stats struct {
	FetchTime  time.Duration
	RenderTime time.Duration
	ListCount  int
	EdgeCount  int
}

// Result holds everything a front end needs after a run.
type Result struct {
	Model    schema.Model
	DOT      string
	Artifact []byte
	Path     string
	Stats    Stats
}

// Runner executes the pipeline. It holds no per-run state: each invocation
// runs against one site with the client's token, so a Runner is safe to reuse
// sequentially but is built fresh per web request.
type Runner struct {
	fetcher Fetcher
	logger  *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default().
func NewRunner(f Fetcher, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{fetcher: f, logger: logger}
}

// Run executes the full pipeline for one site and returns the rendered
// diagram. Every failure is terminal for the invocation; there are no
// retries at any stage.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.SiteID == "" {
		return nil, errors.New(errors.ErrCodeInvalidSite, "site id cannot be empty")
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	if err := render.ValidateFormat(opts.Format); err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	lists, err := r.fetcher.Lists(ctx, opts.SiteID)
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no lists found for site %s", opts.SiteID)
	}

	rels := schema.Relationships(lists)
	model := schema.Build(lists, rels)

	result := &Result{Model: model}
	result.Stats.FetchTime = time.Since(fetchStart)
	result.Stats.ListCount = len(model.Lists)
	result.Stats.EdgeCount = len(model.Relationships)

	r.logger.Info("fetched site schema",
		"site", opts.SiteID,
		"lists", result.Stats.ListCount,
		"relationships", result.Stats.EdgeCount,
		"duration", result.Stats.FetchTime.Round(time.Millisecond))

	renderStart := time.Now()
	result.DOT = render.ToDOT(model)
	result.Artifact, err = render.Render(ctx, result.DOT, opts.Format)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)

	r.logger.Info("rendered diagram",
		"format", opts.Format,
		"bytes", len(result.Artifact),
		"duration", result.Stats.RenderTime.Round(time.Millisecond))

	if opts.Output != "" {
		if err := render.WriteFile(opts.Output, result.Artifact); err != nil {
			return nil, err
		}
		result.Path = opts.Output
	}

	return result, nil
}

// NewGraphRunner wires a Runner to a real Graph API client built from cfg.
func NewGraphRunner(cfg graphapi.Config, logger *log.Logger) (*Runner, error) {
	client, err := graphapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRunner(client, logger), nil
}
