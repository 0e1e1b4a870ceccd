package sqlite

import (
	"errors"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// constraint identifies which schema rule a failed statement tripped.
type constraint int

const (
	constraintNone constraint = iota
	constraintUnique
	constraintForeignKey
	constraintCheck
	constraintOther
)

// classifyConstraint inspects a driver error. The extended result code is
// preferred; the message is a fallback for connections that only report
// the primary SQLITE_CONSTRAINT code.
func classifyConstraint(err error) constraint {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return constraintNone
	}

	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return constraintUnique
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return constraintForeignKey
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return constraintCheck
	}

	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return constraintNone
	}
	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return constraintUnique
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return constraintForeignKey
	case strings.Contains(msg, "CHECK constraint failed"):
		return constraintCheck
	}
	return constraintOther
}

func isUniqueViolation(err error) bool {
	return classifyConstraint(err) == constraintUnique
}

func isForeignKeyViolation(err error) bool {
	return classifyConstraint(err) == constraintForeignKey
}

func isCheckViolation(err error) bool {
	return classifyConstraint(err) == constraintCheck
}
