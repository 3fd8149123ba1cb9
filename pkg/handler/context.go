package handler

// DI for all handlers alike.

import (
	"time"

	"github.com/yumyai/orthologs/pkg/db"
	"github.com/yumyai/orthologs/pkg/search"
)

const defaultQueryTimeout = 10 * time.Second

type SearchContext struct {
	Store        db.Store
	Planner      *search.Planner
	QueryTimeout time.Duration
}

func NewSearchContext(store db.Store, timeout time.Duration) *SearchContext {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &SearchContext{
		Store:        store,
		Planner:      search.NewPlanner(store),
		QueryTimeout: timeout,
	}
}
