package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wfdiagram/pkg/cache"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/observability"
	"github.com/matzehuels/wfdiagram/pkg/source"
)

// Runner executes pipeline stages with caching.
//
// The Runner holds no per-run state, so multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute loads workflow id from src and runs the remaining stages.
func (r *Runner) Execute(ctx context.Context, src source.Source, id string, opts Options) (*Result, error) {
	opts, err := r.prepare(opts)
	if err != nil {
		return nil, err
	}

	loadStart := time.Now()
	w, hit, err := r.LoadWorkflow(ctx, src, id, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(loadStart)

	result, err := r.ExecuteWorkflow(ctx, w, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime
	result.CacheInfo.LoadHit = hit
	return result, nil
}

// ExecuteWorkflow runs layout, hints and render for an already loaded workflow.
func (r *Runner) ExecuteWorkflow(ctx context.Context, w graph.Workflow, opts Options) (*Result, error) {
	opts, err := r.prepare(opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Workflow: w}

	layoutStart := time.Now()
	d, layoutHit, err := r.LayoutWithCacheInfo(ctx, w, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"engine", d.Engine,
		"tasks", len(d.Nodes),
		"duration", result.Stats.LayoutTime)

	hintStart := time.Now()
	d = ApplyHints(ctx, d, opts)
	result.Stats.HintTime = time.Since(hintStart)
	result.Diagram = d
	result.Stats.TaskCount = len(d.Nodes)
	result.Stats.EdgeCount = len(d.Edges)
	result.Stats.Hinted = d.Hints

	opts.Logger.Debug("applied merge hints",
		"edges", len(d.Edges),
		"hinted", d.Hints,
		"enabled", opts.HintsEnabled())

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, d, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWorkflow reads workflow id from src, consulting the cache first unless
// opts.Refresh is set. The bool reports a cache hit.
func (r *Runner) LoadWorkflow(ctx context.Context, src source.Source, id string, opts Options) (graph.Workflow, bool, error) {
	opts, err := r.prepare(opts)
	if err != nil {
		return graph.Workflow{}, false, err
	}

	key := r.Keyer.WorkflowKey(src.Name(), id)
	if !opts.Refresh {
		if data, ok := r.get(ctx, "workflow", key); ok {
			if w, err := graph.UnmarshalWorkflow(data); err == nil {
				return w, true, nil
			}
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, src.Name(), id)
	start := time.Now()

	w, err := src.Workflow(ctx, id)
	hooks.OnLoadComplete(ctx, src.Name(), id, len(w.Tasks), time.Since(start), err)
	if err != nil {
		return graph.Workflow{}, false, err
	}

	opts.Logger.Info("loaded workflow",
		"source", src.Name(),
		"id", id,
		"tasks", len(w.Tasks),
		"duration", time.Since(start))

	if data, err := graph.MarshalWorkflow(w); err == nil {
		r.set(ctx, "workflow", key, data, cache.TTLWorkflow)
	}
	return w, false, nil
}

// LayoutWithCacheInfo positions w with caching and returns cache hit info.
// The cache key covers the workflow content, so changed task states yield a
// fresh diagram.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, w graph.Workflow, opts Options) (graph.Diagram, bool, error) {
	opts, err := r.prepare(opts)
	if err != nil {
		return graph.Diagram{}, false, err
	}

	data, err := graph.MarshalWorkflow(w)
	if err != nil {
		return graph.Diagram{}, false, fmt.Errorf("serialize workflow for cache key: %w", err)
	}
	key := r.Keyer.DiagramKey(cache.Hash(data), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.get(ctx, "diagram", key); ok {
			if d, err := graph.UnmarshalDiagram(cached); err == nil {
				return d, true, nil
			}
		}
	}

	d, err := Layout(ctx, w, opts)
	if err != nil {
		return graph.Diagram{}, false, err
	}
	if out, err := graph.MarshalDiagram(d); err == nil {
		r.set(ctx, "diagram", key, out, cache.TTLDiagram)
	}
	return d, false, nil
}

// Layout positions w without hints, using the cache.
func (r *Runner) Layout(ctx context.Context, w graph.Workflow, opts Options) (graph.Diagram, error) {
	d, _, err := r.LayoutWithCacheInfo(ctx, w, opts)
	return d, err
}

// Diagram positions w and attaches merge hints when enabled.
func (r *Runner) Diagram(ctx context.Context, w graph.Workflow, opts Options) (graph.Diagram, error) {
	opts, err := r.prepare(opts)
	if err != nil {
		return graph.Diagram{}, err
	}
	d, err := r.Layout(ctx, w, opts)
	if err != nil {
		return graph.Diagram{}, err
	}
	return ApplyHints(ctx, d, opts), nil
}

// RenderWithCacheInfo generates artifacts with caching and returns true when
// every format came from the cache. JSON is never cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d graph.Diagram, opts Options) (map[string][]byte, bool, error) {
	opts, err := r.prepare(opts)
	if err != nil {
		return nil, false, err
	}

	data, err := graph.MarshalDiagram(d)
	if err != nil {
		return nil, false, fmt.Errorf("serialize diagram for cache key: %w", err)
	}
	diagramHash := cache.Hash(data)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if format == graph.FormatJSON {
			artifacts[format] = data
			continue
		}
		if cached, ok := r.get(ctx, "artifact", r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))); ok {
			artifacts[format] = cached
			continue
		}
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, d, renderOpts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, out := range rendered {
		artifacts[format] = out
		r.set(ctx, "artifact", r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format)), out, cache.TTLArtifact)
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, d graph.Diagram, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, d, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// prepare applies defaults, the runner's logger and validation.
func (r *Runner) prepare(opts Options) (Options, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, hit
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
