package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Keys name index attributes and are rendered into queries verbatim.
var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("filter key is required")
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid filter key %q", key)
	}
	return nil
}

// Expression is a structured pre-filter with must/must_not boolean semantics.
type Expression struct {
	must    []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, mustNot: mustNot}, nil
}

// FromMap converts a loose key/value mapping into an Expression.
// Strings become tag matches, string lists become any-of tag matches,
// numbers become exact ranges and booleans become "true"/"false" tags.
// Keys are processed in sorted order so the rendered query is stable.
func FromMap(m map[string]any) (Expression, error) {
	if len(m) == 0 {
		return Expression{}, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]Condition, 0, len(keys))
	for _, k := range keys {
		cond, err := conditionFromValue(k, m[k])
		if err != nil {
			return Expression{}, err
		}
		must = append(must, cond)
	}
	return NewExpression(must, nil)
}

func conditionFromValue(key string, v any) (Condition, error) {
	switch val := v.(type) {
	case string:
		return NewMatch(key, val)
	case []string:
		return NewAnyOf(key, val)
	case []any:
		values := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return Condition{}, fmt.Errorf("filter %q: list items must be strings, got %T", key, item)
			}
			values = append(values, s)
		}
		return NewAnyOf(key, values)
	case bool:
		return NewMatch(key, strconv.FormatBool(val))
	case int:
		return exact(key, float64(val))
	case int64:
		return exact(key, float64(val))
	case float32:
		return exact(key, float64(val))
	case float64:
		return exact(key, val)
	default:
		return Condition{}, fmt.Errorf("filter %q: unsupported value type %T", key, v)
	}
}

func exact(key string, v float64) (Condition, error) {
	r, err := NewRangeFilter(nil, &v, nil, &v)
	if err != nil {
		return Condition{}, err
	}
	return NewRange(key, r)
}

// With returns a copy of e where cond replaces every must condition on the same key.
func (e Expression) With(cond Condition) Expression {
	must := make([]Condition, 0, len(e.must)+1)
	for _, c := range e.must {
		if c.key != cond.key {
			must = append(must, c)
		}
	}
	must = append(must, cond)
	return Expression{must: must, mustNot: append([]Condition(nil), e.mustNot...)}
}

// Without returns a copy of e with cond appended to the must_not group.
func (e Expression) Without(cond Condition) Expression {
	mustNot := append(append([]Condition(nil), e.mustNot...), cond)
	return Expression{must: append([]Condition(nil), e.must...), mustNot: mustNot}
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.mustNot) == 0
}

// Condition is a single filter clause: either a tag match or a numeric range.
type Condition struct {
	key       string
	values    []string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if err := checkKey(key); err != nil {
		return Condition{}, err
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, values: []string{match}}, nil
}

// NewAnyOf creates a tag condition satisfied by any of the given values.
func NewAnyOf(key string, values []string) (Condition, error) {
	if err := checkKey(key); err != nil {
		return Condition{}, err
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty value in list for key %q", key)
		}
	}
	return Condition{key: key, values: append([]string(nil), values...)}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if err := checkKey(key); err != nil {
		return Condition{}, err
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// MustMatch is NewMatch for keys and values known to be valid.
func MustMatch(key, match string) Condition {
	c, err := NewMatch(key, match)
	if err != nil {
		panic(err)
	}
	return c
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Values returns the accepted tag values.
func (c Condition) Values() []string { return c.values }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a tag condition.
func (c Condition) IsMatch() bool { return len(c.values) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }
