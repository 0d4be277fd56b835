// Package pipeline runs one digest pass: fetch, filter, extract, tag, cluster, rank and deliver.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"funding_digest/internal/cluster"
	"funding_digest/internal/config"
	"funding_digest/internal/extract"
	"funding_digest/internal/filter"
	"funding_digest/internal/logger"
	"funding_digest/internal/metrics"
	"funding_digest/internal/models"
	"funding_digest/internal/tagger"
	"funding_digest/internal/textnorm"
	"funding_digest/internal/vocab"
)

// Fetcher reads one source.
type Fetcher interface {
	Fetch(ctx context.Context, src config.Source) ([]models.RawArticle, error)
}

// Presenter receives the final ranked list and its size.
type Presenter interface {
	Deliver(ctx context.Context, records []models.Record, count int) error
}

// Presenters delivers to each presenter in turn. One failing presenter does not stop the others.
type Presenters []Presenter

func (ps Presenters) Deliver(ctx context.Context, records []models.Record, count int) error {
	var errs []error
	for _, p := range ps {
		if err := p.Deliver(ctx, records, count); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pipeline runs Fetch → Filter → Extract+Tag → Cluster → Rank → Truncate → Hand off.
// It keeps no state between runs.
type Pipeline struct {
	sources    []config.Source
	fetcher    Fetcher
	filter     *filter.Pipeline
	extractor  *extract.Extractor
	tagger     *tagger.Classifier
	cluster    *cluster.Engine
	presenter  Presenter
	maxResults int
	now        func() time.Time
}

// New wires a pipeline from configuration and vocabulary.
func New(cfg *config.Config, v *vocab.Vocabulary, f Fetcher, p Presenter) (*Pipeline, error) {
	mode, err := textnorm.ParseMatchMode(cfg.MatchMode)
	if err != nil {
		return nil, err
	}
	ex, err := extract.New(v)
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}
	return &Pipeline{
		sources: cfg.Sources,
		fetcher: f,
		filter: filter.New(v, filter.Options{
			MaxAgeDays:    cfg.MaxAgeDays,
			RequireDomain: cfg.RequireDomain,
			MatchMode:     mode,
		}),
		extractor:  ex,
		tagger:     tagger.New(v.Tags, mode),
		cluster:    cluster.New(v.SourcePriority),
		presenter:  p,
		maxResults: cfg.MaxResults,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source. Used by tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run performs one full pass and hands the result to the presenter.
func (p *Pipeline) Run(ctx context.Context) ([]models.Record, error) {
	start := time.Now()
	log := logger.Log.WithField("service", "pipeline")

	articles := p.Collect(ctx)
	records := p.Process(articles, p.now())

	log.WithFields(logger.Fields{
		"articles": len(articles),
		"records":  len(records),
	}).Info("Digest assembled")

	metrics.Delivered.Set(float64(len(records)))
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	if p.presenter != nil {
		if err := p.presenter.Deliver(ctx, records, len(records)); err != nil {
			metrics.Runs.WithLabelValues("delivery_failed").Inc()
			return records, fmt.Errorf("deliver digest: %w", err)
		}
	}
	metrics.Runs.WithLabelValues("ok").Inc()
	return records, nil
}

// Collect fetches every source sequentially. A failing source is logged and contributes nothing.
func (p *Pipeline) Collect(ctx context.Context) []models.RawArticle {
	var articles []models.RawArticle
	for _, src := range p.sources {
		if ctx.Err() != nil {
			break
		}
		log := logger.Log.WithFields(logger.Fields{
			"source": src.Name,
			"url":    src.URL,
			"query":  src.Query,
		})

		items, err := p.fetcher.Fetch(ctx, src)
		if err != nil {
			metrics.FetchErrors.WithLabelValues(src.Name).Inc()
			log.WithError(err).Warn("Failed to fetch source")
			continue
		}
		metrics.ArticlesFetched.WithLabelValues(src.Name).Add(float64(len(items)))
		log.WithField("items_count", len(items)).Debug("Fetched source")
		articles = append(articles, items...)
	}
	return articles
}

// Process is the deterministic part of a run: filter, extract, tag, cluster, rank and cap.
func (p *Pipeline) Process(articles []models.RawArticle, now time.Time) []models.Record {
	records := make([]models.Record, 0, len(articles))
	for _, a := range articles {
		ok, stage := p.filter.Evaluate(a, now)
		if !ok {
			metrics.Rejections.WithLabelValues(stage).Inc()
			logger.Log.WithFields(logger.Fields{
				"stage": stage,
				"title": a.Title,
			}).Debug("Article rejected")
			continue
		}
		r := p.extractor.Extract(a, now)
		r.Tags = p.tagger.Tags(a)
		records = append(records, r)
	}
	metrics.RecordsExtracted.Add(float64(len(records)))

	canonical := p.cluster.Cluster(records)
	metrics.Clusters.Set(float64(len(canonical)))

	sort.SliceStable(canonical, func(i, j int) bool {
		return canonical[i].AgeDays < canonical[j].AgeDays
	})
	if p.maxResults > 0 && len(canonical) > p.maxResults {
		canonical = canonical[:p.maxResults]
	}
	return canonical
}
