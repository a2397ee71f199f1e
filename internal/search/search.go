// Package search runs search-language queries against the log store.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/backlog/internal/querylang"
	"github.com/roach88/backlog/internal/querysql"
	"github.com/roach88/backlog/internal/store"
)

// DefaultLimit is the row limit when a request does not set one.
const DefaultLimit = 10

// Querier executes a parameterised read against the log.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*store.Rows, error)
}

// Request is one search.
type Request struct {
	Query string // search-language text
	Self  string // viewer nick, matched against own messages
	Limit int    // row limit; 0 means DefaultLimit
}

// Result is a successful search.
type Result struct {
	SQL  string
	Args []any
	Rows []store.Row
}

// ExecError reports a compiled query that the database rejected. It points
// at a compiler defect rather than a user mistake, so it carries the full
// statement for diagnosis.
type ExecError struct {
	Source string // query text as typed
	SQL    string
	Params []any
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execute query %q: %v", e.Source, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsHelp reports whether the query asks for the grammar instead of rows.
func IsHelp(query string) bool {
	return strings.EqualFold(strings.TrimSpace(query), "help")
}

// Searcher runs searches against one store.
type Searcher struct {
	store Querier
}

// New creates a Searcher reading from st.
func New(st Querier) *Searcher {
	return &Searcher{store: st}
}

// Compile parses and compiles a request without running it.
//
// Errors are *querylang.SyntaxError for text outside the grammar and
// querylang.ErrEmptyQuery for a query without conditions.
func Compile(req Request) (querysql.Compiled, error) {
	q, err := querylang.Parse(req.Query)
	if err != nil {
		return querysql.Compiled{}, err
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	compiled, err := querysql.NewCompiler(req.Self).Compile(q, limit)
	if err != nil {
		return querysql.Compiled{}, err
	}
	return compiled, nil
}

// Search runs req and returns the matching rows, oldest first.
//
// Execution failures are returned as *ExecError and never retried.
func (s *Searcher) Search(ctx context.Context, req Request) (*Result, error) {
	compiled, err := Compile(req)
	if err != nil {
		return nil, err
	}

	sqlText, args := compiled.SQL(), compiled.Args()
	slog.Debug("search compiled", "query", req.Query, "sql", sqlText, "args", args)

	rows, err := s.store.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, &ExecError{Source: req.Query, SQL: sqlText, Params: args, Err: err}
	}

	out, err := rows.All()
	if err != nil {
		return nil, &ExecError{Source: req.Query, SQL: sqlText, Params: args, Err: err}
	}

	return &Result{SQL: sqlText, Args: args, Rows: out}, nil
}

// Kind classifies a search error for callers that report it.
type Kind string

const (
	KindSyntax Kind = "syntax"
	KindEmpty  Kind = "empty"
	KindExec   Kind = "exec"
	KindOther  Kind = "other"
)

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	var (
		syn  *querylang.SyntaxError
		exec *ExecError
	)
	switch {
	case errors.As(err, &syn):
		return KindSyntax
	case errors.Is(err, querylang.ErrEmptyQuery), errors.Is(err, querysql.ErrNoConditions):
		return KindEmpty
	case errors.As(err, &exec):
		return KindExec
	default:
		return KindOther
	}
}
