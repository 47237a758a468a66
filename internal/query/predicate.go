// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package query composes SQL WHERE clauses from optional search filters.
package query

import (
	"strconv"
	"strings"
	"time"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	// SQLite renders ? placeholders.
	SQLite Dialect = iota
	// Postgres renders $1, $2, ... placeholders.
	Postgres
)

// Column is a vetted column name. Only the constants below are valid.
type Column string

const (
	ColFileName     Column = "file_name"
	ColExtensionNum Column = "extension_num"
	ColObjectID     Column = "object_id"
	ColChannelNum   Column = "channel_num"
	ColAniAliDigits Column = "ani_ali_digits"
	ColName         Column = "name"
	ColOpco         Column = "opco"
	ColDateAdded    Column = "date_added"
)

var allowedColumns = map[Column]struct{}{
	ColFileName: {}, ColExtensionNum: {}, ColObjectID: {}, ColChannelNum: {},
	ColAniAliDigits: {}, ColName: {}, ColOpco: {}, ColDateAdded: {},
}

// Predicate is a SQL boolean fragment with ? placeholders and its arguments.
// The zero value is the no-op predicate.
type Predicate struct {
	sql  string
	args []any
}

// Empty reports whether p filters nothing.
func (p Predicate) Empty() bool { return p.sql == "" }

// SQL returns the fragment with ? placeholders, or 1=1 when empty.
func (p Predicate) SQL() string {
	if p.Empty() {
		return "1=1"
	}
	return p.sql
}

// Args returns the bound arguments in placeholder order.
func (p Predicate) Args() []any { return p.args }

// Build renders p for dialect, numbering placeholders from 1.
func (p Predicate) Build(d Dialect) (string, []any) {
	return p.BuildFrom(d, 1)
}

// BuildFrom renders p numbering Postgres placeholders from start.
func (p Predicate) BuildFrom(d Dialect, start int) (string, []any) {
	return rebindFrom(d, p.SQL(), start), p.args
}

// Rebind rewrites ? placeholders in sql for d. sql must not contain literal
// question marks.
func Rebind(d Dialect, sql string) string {
	return rebindFrom(d, sql, 1)
}

func rebindFrom(d Dialect, sql string, start int) string {
	if d != Postgres {
		return sql
	}
	var b strings.Builder
	n := start
	for _, r := range sql {
		if r == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func mustColumn(c Column) string {
	if _, ok := allowedColumns[c]; !ok {
		panic("query: column not allowed: " + string(c))
	}
	return string(c)
}

func combine(op string, ps []Predicate) Predicate {
	var parts []string
	var args []any
	for _, p := range ps {
		if p.Empty() {
			continue
		}
		parts = append(parts, p.sql)
		args = append(args, p.args...)
	}
	switch len(parts) {
	case 0:
		return Predicate{}
	case 1:
		return Predicate{sql: parts[0], args: args}
	}
	return Predicate{sql: "(" + strings.Join(parts, " "+op+" ") + ")", args: args}
}

// And joins the non-empty predicates with AND.
func And(ps ...Predicate) Predicate { return combine("AND", ps) }

// Or joins the non-empty predicates with OR.
func Or(ps ...Predicate) Predicate { return combine("OR", ps) }

// DateRange bounds col inclusively. A nil bound is open.
func DateRange(col Column, from, to *time.Time) Predicate {
	name := mustColumn(col)
	switch {
	case from != nil && to != nil:
		return Predicate{sql: name + " BETWEEN ? AND ?", args: []any{*from, *to}}
	case from != nil:
		return Predicate{sql: name + " >= ?", args: []any{*from}}
	case to != nil:
		return Predicate{sql: name + " <= ?", args: []any{*to}}
	}
	return Predicate{}
}

// Contains matches rows whose col contains term, case-insensitively. A blank
// term yields the no-op predicate.
func Contains(col Column, term string) Predicate {
	name := mustColumn(col)
	if strings.TrimSpace(term) == "" {
		return Predicate{}
	}
	pattern := "%" + EscapeLike(strings.ToLower(term)) + "%"
	return Predicate{sql: "LOWER(" + name + ") LIKE ? ESCAPE '\\'", args: []any{pattern}}
}

// ContainsAny matches rows whose col contains any non-blank term.
func ContainsAny(col Column, terms []string) Predicate {
	ps := make([]Predicate, 0, len(terms))
	for _, t := range terms {
		ps = append(ps, Contains(col, t))
	}
	return Or(ps...)
}

// EscapeLike neutralises LIKE wildcards so s matches literally under ESCAPE '\'.
// The backslash is escaped first so the escapes added for % and _ survive.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
