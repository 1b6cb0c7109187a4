package repository

import (
	"strconv"
	"strings"

	"github.com/deppfellow/perf-dashboard/internal/model"
)

// nowEpoch is the current time as whole unix seconds, evaluated by Postgres.
const nowEpoch = "floor(extract(epoch FROM now()))::bigint"

// Condition is a SQL boolean expression using "?" as a placeholder for each
// of its Args, in order.
type Condition struct {
	SQL  string
	Args []any
}

// Predicate is a disjunction of conditions. The zero value matches everything.
type Predicate []Condition

// TrialPredicate selects active trials and/or trials completed within the filter's period.
func TrialPredicate(filter model.TrialFilter) Predicate {
	var p Predicate

	if filter.Active {
		p = append(p, Condition{
			SQL:  "size IS NULL AND period IS NULL AND " + nowEpoch + " - ts < ?",
			Args: []any{int64(model.TrialReportingTimeout)},
		})
	}

	if filter.Period != nil {
		p = append(p, Condition{
			SQL:  "size IS NOT NULL AND period IS NOT NULL AND " + nowEpoch + " - ts < ?",
			Args: []any{*filter.Period},
		})
	}

	return p
}

// Empty reports whether the predicate has no conditions.
func (p Predicate) Empty() bool {
	return len(p) == 0
}

// Render returns the predicate as SQL with $n placeholders numbered from
// offset+1, and the arguments in placeholder order. An empty predicate
// renders to "".
func (p Predicate) Render(offset int) (string, []any) {
	if p.Empty() {
		return "", nil
	}

	var (
		sb   strings.Builder
		args []any
	)

	for i, cond := range p {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteByte('(')

		next := 0
		for _, r := range cond.SQL {
			if r == '?' && next < len(cond.Args) {
				args = append(args, cond.Args[next])
				next++
				sb.WriteByte('$')
				sb.WriteString(strconv.Itoa(offset + len(args)))
				continue
			}
			sb.WriteRune(r)
		}

		sb.WriteByte(')')
	}

	return sb.String(), args
}
