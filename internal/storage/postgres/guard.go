package postgres

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyQuery        = errors.New("empty query text")
	ErrMultipleStatement = errors.New("query contains more than one statement")
)

// ValidateReadOnly enforces the structural allow-list before dispatch:
// exactly one statement, starting with SELECT (or WITH for CTEs). This is a
// shallow check, not a parser; deeper validation is out of scope.
func ValidateReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ErrEmptyQuery
	}

	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	if trimmed == "" {
		// A lone terminator, e.g. a model replying ";".
		return ErrEmptyQuery
	}
	if strings.Contains(trimmed, ";") {
		return ErrMultipleStatement
	}

	fields := strings.Fields(trimmed)
	keyword := strings.ToUpper(fields[0])
	if keyword != "SELECT" && keyword != "WITH" {
		return fmt.Errorf("not a read-only statement: leading keyword %s", keyword)
	}

	return nil
}
