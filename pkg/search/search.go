package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yumyai/orthologs/logger"
	"github.com/yumyai/orthologs/pkg/db"
	"github.com/yumyai/orthologs/pkg/metrics"
	"github.com/yumyai/orthologs/pkg/model"
)

type Strategy int

const (
	StrategyNone        Strategy = iota // empty query, store not contacted
	StrategyCombined                    // pattern clauses plus full text
	StrategyPatternOnly                 // retry after a planner rejection
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyCombined:
		return "combined"
	case StrategyPatternOnly:
		return "pattern_only"
	default:
		return "unknown"
	}
}

// Result is what one search produced and how.
type Result struct {
	Query    string
	Records  []model.OrthologRecord
	Strategy Strategy
}

// Planner runs gene searches against a shared store. It holds no mutable
// state, so one Planner serves all requests.
type Planner struct {
	store db.Store
}

func NewPlanner(store db.Store) *Planner {
	return &Planner{store: store}
}

// Search returns the candidate documents for query in store order.
// An empty query yields an empty list without touching the store.
func (p *Planner) Search(ctx context.Context, query string) ([]model.OrthologRecord, error) {
	res, err := p.Run(ctx, query)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Run tries the combined query first. A planner rejection is retried once
// with the pattern clauses alone; every other failure is returned.
func (p *Planner) Run(ctx context.Context, query string) (Result, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Result{Records: []model.OrthologRecord{}, Strategy: StrategyNone}, nil
	}

	start := time.Now()
	res := Result{Query: q, Strategy: StrategyCombined}

	records, err := p.store.Find(ctx, CombinedFilter(q))
	if errors.Is(err, db.ErrPlannerRejected) {
		logger.Warn("Store rejected combined query, retrying with patterns only",
			zap.String("query", q), zap.Error(err))
		metrics.SearchFallbackTotal.Inc()

		res.Strategy = StrategyPatternOnly
		records, err = p.store.Find(ctx, PatternFilter(q))
	}
	metrics.SearchDuration.WithLabelValues(res.Strategy.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SearchTotal.WithLabelValues(res.Strategy.String(), "error").Inc()
		return Result{}, fmt.Errorf("search %q (%s): %w", q, res.Strategy, err)
	}
	if records == nil {
		records = []model.OrthologRecord{}
	}
	res.Records = records

	outcome := "hit"
	if len(records) == 0 {
		outcome = "miss"
	}
	metrics.SearchTotal.WithLabelValues(res.Strategy.String(), outcome).Inc()

	logger.Debug("Search finished",
		zap.String("query", q),
		zap.String("strategy", res.Strategy.String()),
		zap.Int("results", len(records)))
	return res, nil
}

// PatternFilter matches the query as a substring of the SC id, the SC name or
// any KM id.
func PatternFilter(q string) db.Filter {
	return db.Filter{Any: []db.Clause{
		db.Pattern(db.FieldSCID, q),
		db.Pattern(db.FieldSCName, q),
		db.Pattern(db.FieldKMIDs, q),
	}}
}

// CombinedFilter adds the store's full-text search to PatternFilter.
func CombinedFilter(q string) db.Filter {
	f := PatternFilter(q)
	f.Any = append(f.Any, db.FullText(q))
	return f
}
