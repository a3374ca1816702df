// Package service runs analyses for the CLI and HTTP front ends: dialect
// lookup, a shared result cache, and bounded parallel batches.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/leapstack-labs/sqltype/pkg/catalog"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/leapstack-labs/sqltype/pkg/normalize"
	"github.com/leapstack-labs/sqltype/pkg/parser"
	"github.com/leapstack-labs/sqltype/pkg/typecheck"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheSize is the number of results kept when Options.CacheSize is zero.
const DefaultCacheSize = 512

// Options configures a Service.
type Options struct {
	// Workers bounds batch parallelism. Zero means GOMAXPROCS.
	Workers int
	// CacheSize is the LRU capacity. Negative disables caching.
	CacheSize       int
	StrictRecursive bool
	Logger          *slog.Logger
}

// Source is one statement to analyze.
type Source struct {
	// Name identifies the statement in reports, e.g. "queries.sql:3".
	Name    string `json:"name,omitempty"`
	SQL     string `json:"sql"`
	Dialect string `json:"dialect,omitempty"`
}

// Outcome is the analysis of one Source. Exactly one of Result and Err is set.
type Outcome struct {
	Source Source
	Result *typecheck.Result
	Err    error
}

type entry struct {
	res *typecheck.Result
	err error
}

// Service analyzes statements against one catalog. It is safe for
// concurrent use.
type Service struct {
	analyzer *typecheck.Analyzer
	cache    *lru.Cache[string, entry]
	workers  int
	logger   *slog.Logger
}

// New creates a service over cat.
func New(cat *catalog.Catalog, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s := &Service{
		analyzer: typecheck.NewAnalyzer(cat, typecheck.Options{
			StrictRecursive: opts.StrictRecursive,
			Logger:          logger,
		}),
		workers: workers,
		logger:  logger,
	}

	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, entry](size)
		if err != nil {
			return nil, fmt.Errorf("create result cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Catalog returns the catalog statements are checked against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.analyzer.Catalog()
}

// Dialect resolves a dialect name. The empty name means the catalog's dialect.
func (s *Service) Dialect(name string) (*dialect.Dialect, error) {
	if name == "" {
		return s.Catalog().Dialect(), nil
	}
	d, ok := dialect.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %v)", name, dialect.List())
	}
	return d, nil
}

// Analyze types one statement. Results, failures included, are cached by
// dialect and SQL text.
func (s *Service) Analyze(ctx context.Context, sql, dialectName string) (*typecheck.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := s.Dialect(dialectName)
	if err != nil {
		return nil, err
	}

	key := d.Name + "\x00" + sql
	if s.cache != nil {
		if e, ok := s.cache.Get(key); ok {
			s.logger.Debug("analysis cache hit", "dialect", d.Name)
			return e.res, e.err
		}
	}

	res, err := s.analyzer.AnalyzeSQL(sql, d)
	if s.cache != nil {
		s.cache.Add(key, entry{res: res, err: err})
	}
	return res, err
}

// AnalyzeBatch analyzes every source with bounded parallelism. Analysis
// failures are reported per outcome and never stop the batch; only ctx
// cancellation does, in which case the returned error is ctx's.
func (s *Service) AnalyzeBatch(ctx context.Context, sources []Source) ([]Outcome, error) {
	out := make([]Outcome, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Analyze(gctx, src.SQL, src.Dialect)
			out[i] = Outcome{Source: src, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	s.logger.Debug("analyzed batch", "statements", len(sources), "failed", failed)
	return out, nil
}

// Split breaks a script into statement sources named name:1, name:2, ...
func (s *Service) Split(name, script, dialectName string) ([]Source, error) {
	d, err := s.Dialect(dialectName)
	if err != nil {
		return nil, err
	}
	parts := parser.SplitStatements(script, d)
	out := make([]Source, len(parts))
	for i, sql := range parts {
		out[i] = Source{Name: fmt.Sprintf("%s:%d", name, i+1), SQL: sql, Dialect: dialectName}
	}
	return out, nil
}

// Normalize rewrites :: casts to CAST(... AS ...).
func (s *Service) Normalize(sql string) string {
	return normalize.RewriteCasts(sql)
}

// CacheLen reports the number of cached results.
func (s *Service) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}
