package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// FailureKind classifies expected mutation failures. These surface in the
// mutation payload's errors array rather than as transport-level errors.
type FailureKind int

const (
	FailureValidation FailureKind = iota
	FailureNotFound
	FailureAmbiguous
	FailureConstraint
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureNotFound:
		return "not_found"
	case FailureAmbiguous:
		return "ambiguous"
	case FailureConstraint:
		return "constraint"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// UserError is one field-scoped error message group in a mutation payload.
// A nil-field entry applies to the operation as a whole.
type UserError struct {
	Field    string
	Messages []string
}

// Failure is a typed mutation failure. It rolls the transaction back but is
// reported through the {ok, errors, result} envelope.
type Failure struct {
	Kind   FailureKind
	Errors []UserError
}

func (f *Failure) Error() string {
	parts := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		if e.Field != "" {
			parts = append(parts, e.Field+": "+strings.Join(e.Messages, "; "))
		} else {
			parts = append(parts, strings.Join(e.Messages, "; "))
		}
	}
	return fmt.Sprintf("%s: %s", f.Kind, strings.Join(parts, ", "))
}

func validationFailure(field, message string) *Failure {
	return &Failure{
		Kind:   FailureValidation,
		Errors: []UserError{{Field: field, Messages: []string{message}}},
	}
}

func notFoundFailure(entityName string) *Failure {
	return &Failure{
		Kind:   FailureNotFound,
		Errors: []UserError{{Messages: []string{fmt.Sprintf("%s matching the given filter does not exist", entityName)}}},
	}
}

func ambiguousFailure(entityName string, count int) *Failure {
	return &Failure{
		Kind:   FailureAmbiguous,
		Errors: []UserError{{Messages: []string{fmt.Sprintf("filter matched %d %s rows, expected exactly one", count, entityName)}}},
	}
}

func constraintFailure(message string) *Failure {
	return &Failure{
		Kind:   FailureConstraint,
		Errors: []UserError{{Messages: []string{message}}},
	}
}

// MySQL server error numbers surfaced as typed failures.
const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrFKConstraint   = 1452
)

// classifyStoreError converts recognizable store errors into typed
// failures. Unrecognized errors pass through and become transport errors.
func classifyStoreError(err error, field string) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDuplicateEntry:
			return validationFailure(field, "a row with this value already exists")
		case mysqlErrFKConstraint:
			return constraintFailure("referenced row does not exist")
		}
	}
	return err
}

// asFailure unwraps a typed failure from an error chain.
func asFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}
