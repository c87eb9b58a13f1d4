package services

import (
	"strings"

	"gorm.io/gorm"
)

// applyCaseInsensitiveSearch adds an OR-joined substring match over the given
// columns. Postgres gets ILIKE; other dialects (the sqlite test driver) fall
// back to LOWER(...) LIKE so behaviour stays identical.
func applyCaseInsensitiveSearch(query *gorm.DB, term string, columns []string) *gorm.DB {
	clauses := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))

	if strings.EqualFold(query.Dialector.Name(), "postgres") {
		pattern := "%" + term + "%"
		for _, column := range columns {
			clauses = append(clauses, column+" ILIKE ?")
			args = append(args, pattern)
		}
	} else {
		pattern := "%" + strings.ToLower(term) + "%"
		for _, column := range columns {
			clauses = append(clauses, "LOWER("+column+") LIKE ?")
			args = append(args, pattern)
		}
	}

	return query.Where(strings.Join(clauses, " OR "), args...)
}
