package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ilpcoach/internal/db"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/filter"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
)

const (
	defaultVectorField = "__vector"
	scoreField         = "__vector_score"
)

// SearchKNN finds the K nearest vectors, closest first.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, fmt.Errorf("knn: index name is required")
	case len(q.Vector) == 0:
		return nil, fmt.Errorf("knn: vector is required")
	case q.K <= 0:
		return nil, fmt.Errorf("knn: k must be positive, got %d", q.K)
	}

	args := []string{q.IndexName, knnQuery(q)}
	args = appendReturn(args, q.ReturnFields)
	args = append(args,
		"SORTBY", scoreField,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", string(vector.Encode(q.Vector)),
		"DIALECT", "2",
	)
	return s.search(ctx, args, true)
}

// SearchList returns one page of documents matching q.Query.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	args := appendReturn([]string{q.Index, q.Query}, q.Fields)
	if q.SortBy != "" {
		order := "ASC"
		if q.Descending {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, order)
	}
	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit))
	return s.search(ctx, args, false)
}

// SearchCount returns how many documents match query.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	res, err := s.search(ctx, []string{index, query, "LIMIT", "0", "0"}, false)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (s *Store) search(ctx context.Context, args []string, scored bool) (*db.SearchResult, error) {
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseReply(raw, scored)
}

// knnQuery builds "(<filter>)=>[KNN k @field $BLOB]", or "*=>[...]" without filters.
func knnQuery(q *db.KNNQuery) string {
	field := q.VectorField
	if field == "" {
		field = defaultVectorField
	}
	pre := "*"
	if f := buildFilter(q.Filters); f != "" {
		pre = "(" + f + ")"
	}
	return fmt.Sprintf("%s=>[KNN %d @%s $BLOB]", pre, q.K, field)
}

func appendReturn(args, fields []string) []string {
	if len(fields) == 0 {
		return args
	}
	args = append(args, "RETURN", strconv.Itoa(len(fields)))
	return append(args, fields...)
}

// parseReply reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// When scored, the cosine distance in __vector_score becomes a similarity in [0, 1].
func parseReply(raw []rueidis.RedisMessage, scored bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		entry := db.SearchEntry{Key: key, Fields: fieldMap(pairs)}
		if scored {
			if dist, err := strconv.ParseFloat(entry.Fields[scoreField], 64); err == nil {
				entry.Score = max(0, 1-dist)
			}
			delete(entry.Fields, scoreField)
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nerr := pairs[j].ToString()
		value, verr := pairs[j+1].ToString()
		if nerr == nil && verr == nil {
			m[name] = value
		}
	}
	return m
}

// buildFilter renders expr as space-joined (AND) clauses; negated clauses get a leading "-".
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}
	clauses := make([]string, 0, len(expr.Must())+len(expr.MustNot()))
	for _, c := range expr.Must() {
		clauses = append(clauses, condition(c))
	}
	for _, c := range expr.MustNot() {
		clauses = append(clauses, "-"+condition(c))
	}
	return strings.Join(clauses, " ")
}

func condition(c filter.Condition) string {
	switch {
	case c.IsMatch():
		values := make([]string, len(c.Values()))
		for i, v := range c.Values() {
			values[i] = db.EscapeTag(v)
		}
		return "@" + c.Key() + ":{" + strings.Join(values, " | ") + "}"
	case c.IsRange():
		return numericRange(c.Key(), *c.Range())
	}
	return ""
}

// numericRange renders @key:[min max]; "(" marks an exclusive bound.
func numericRange(key string, r filter.Range) string {
	lo, hi := "-inf", "+inf"
	switch {
	case r.GT() != nil:
		lo = "(" + formatBound(*r.GT())
	case r.GTE() != nil:
		lo = formatBound(*r.GTE())
	}
	switch {
	case r.LT() != nil:
		hi = "(" + formatBound(*r.LT())
	case r.LTE() != nil:
		hi = formatBound(*r.LTE())
	}
	return "@" + key + ":[" + lo + " " + hi + "]"
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
