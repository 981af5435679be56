package repository

import (
	"fmt"
	"strings"
)

// conditionSet accumulates WHERE clauses and their arguments. Placeholder
// numbers are derived from the accumulated argument slice in one place, so
// callers never count positional parameters themselves. Clause formats use
// one $%d verb per argument, e.g. add("category = $%d", category).
type conditionSet struct {
	clauses []string
	args    []interface{}
}

func (c *conditionSet) add(format string, values ...interface{}) {
	placeholders := make([]interface{}, len(values))
	for i := range values {
		placeholders[i] = len(c.args) + i + 1
	}
	c.clauses = append(c.clauses, fmt.Sprintf(format, placeholders...))
	c.args = append(c.args, values...)
}

// where renders the accumulated clauses as a WHERE fragment, or an empty
// string when no condition was added.
func (c *conditionSet) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}
