package repository

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
)

// Operator is a comparison allowed in product filters.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

// SQL returns the SQL comparison for op.
func (op Operator) SQL() string {
	switch op {
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpIn:
		return "= ANY"
	}
	return "="
}

type valueKind int

const (
	kindInt valueKind = iota
	kindString
)

type filterField struct {
	column string
	kind   valueKind
	ops    map[Operator]bool
}

func ops(list ...Operator) map[Operator]bool {
	m := make(map[Operator]bool, len(list))
	for _, op := range list {
		m[op] = true
	}
	return m
}

var numericOps = ops(OpEq, OpGt, OpGte, OpLt, OpLte, OpIn)

// filterFields maps query keys to columns and the operators each accepts.
var filterFields = map[string]filterField{
	"sellingPrice": {column: "selling_price", kind: kindInt, ops: numericOps},
	"mrp":          {column: "mrp", kind: kindInt, ops: numericOps},
	"stock":        {column: "stock", kind: kindInt, ops: numericOps},
	"discount":     {column: "discount", kind: kindInt, ops: numericOps},
	"category":     {column: "category", kind: kindString, ops: ops(OpEq, OpIn)},
}

// Filter is one validated comparison. Value is int64, string, []int64 or
// []string and is always bound as a parameter.
type Filter struct {
	Column string
	Op     Operator
	Value  any
}

// reserved query keys that are not filters.
var reservedKeys = map[string]bool{"page": true, "limit": true, "per_page": true, "search": true, "sort": true}

// ProductFilterBuilder turns query parameters of the form key=value or
// key[op]=value into Filters. Unknown keys and operators are rejected.
type ProductFilterBuilder struct{}

// Build parses q. Values for "in" are comma separated.
func (ProductFilterBuilder) Build(q url.Values) ([]Filter, error) {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var filters []Filter
	problems := map[string]string{}
	for _, raw := range keys {
		if reservedKeys[raw] {
			continue
		}
		key, op, err := splitKey(raw)
		if err != nil {
			problems[raw] = err.Error()
			continue
		}
		field, ok := filterFields[key]
		if !ok {
			problems[raw] = "unknown filter"
			continue
		}
		if !field.ops[op] {
			problems[raw] = fmt.Sprintf("operator %q not allowed", op)
			continue
		}
		value, err := parseValue(field.kind, op, q.Get(raw))
		if err != nil {
			problems[raw] = err.Error()
			continue
		}
		filters = append(filters, Filter{Column: field.column, Op: op, Value: value})
	}

	if len(problems) > 0 {
		return nil, apperrors.Validation("Invalid product filter", problems)
	}
	return filters, nil
}

func splitKey(raw string) (string, Operator, error) {
	open := strings.IndexByte(raw, '[')
	if open < 0 {
		return raw, OpEq, nil
	}
	if !strings.HasSuffix(raw, "]") || open == 0 {
		return "", "", fmt.Errorf("malformed filter key")
	}
	return raw[:open], Operator(raw[open+1 : len(raw)-1]), nil
}

func parseValue(kind valueKind, op Operator, raw string) (any, error) {
	if op == OpIn {
		parts := strings.Split(raw, ",")
		if kind == kindString {
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out, nil
		}
		out := make([]int64, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("must be a list of integers")
			}
			out = append(out, n)
		}
		return out, nil
	}
	if kind == kindString {
		return raw, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("must be an integer")
	}
	return n, nil
}

// productSorts maps accepted sort values to ORDER BY clauses.
var productSorts = map[string]string{
	"":              "created_at DESC",
	"newest":        "created_at DESC",
	"price_asc":     "selling_price ASC",
	"price_desc":    "selling_price DESC",
	"discount_desc": "discount DESC",
	"name":          "name ASC",
}

// ProductOrderBy returns the ORDER BY clause for sort.
func ProductOrderBy(sort string) (string, error) {
	clause, ok := productSorts[sort]
	if !ok {
		return "", apperrors.Validation("Invalid sort", map[string]string{"sort": "unsupported value"})
	}
	return clause, nil
}
