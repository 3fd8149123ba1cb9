package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/yumyai/orthologs/pkg/model"
)

// Defining possible error
var (
	ErrPlannerRejected = errors.New("query rejected by store planner")
	ErrUnknownBackend  = errors.New("unknown store backend")
)

// PlannerRejectedError is returned when the store refuses to plan a query
// that mixes full-text and pattern clauses in one OR group. It is not a data
// error, the same query without the full-text clause is expected to work.
type PlannerRejectedError struct {
	Store string
	Err   error
}

func (e *PlannerRejectedError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Store, ErrPlannerRejected, e.Err)
}

func (e *PlannerRejectedError) Unwrap() error {
	return e.Err
}

func (e *PlannerRejectedError) Is(target error) bool {
	return target == ErrPlannerRejected
}

// Field names a searchable gene field.
type Field int

const (
	FieldSCID Field = iota
	FieldSCName
	FieldKMIDs
)

func (f Field) String() string {
	switch f {
	case FieldSCID:
		return "sc_gene.id"
	case FieldSCName:
		return "sc_gene.name"
	case FieldKMIDs:
		return "km_gene.ids"
	default:
		return "unknown"
	}
}

type ClauseKind int

const (
	ClausePattern  ClauseKind = iota // case-insensitive substring on Field
	ClauseFullText                   // the store's native text index
)

type Clause struct {
	Kind  ClauseKind
	Field Field // unused for ClauseFullText
	Value string
}

func Pattern(field Field, value string) Clause {
	return Clause{Kind: ClausePattern, Field: field, Value: value}
}

func FullText(value string) Clause {
	return Clause{Kind: ClauseFullText, Value: value}
}

// Filter matches a document when any of its clauses matches.
type Filter struct {
	Any []Clause
}

func (f Filter) HasFullText() bool {
	for _, c := range f.Any {
		if c.Kind == ClauseFullText {
			return true
		}
	}
	return false
}

// Store is a read-only ortholog collection. Implementations must be safe for
// concurrent use and keep the order in which the backend returns documents.
type Store interface {
	Find(ctx context.Context, filter Filter) ([]model.OrthologRecord, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
