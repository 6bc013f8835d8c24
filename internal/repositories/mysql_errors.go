package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repositories translate
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
)

// Client-facing texts per constraint name from the migrations, one map per error number
var (
	duplicateMessages = map[string]string{
		"uq_steps_course_order":          "two steps of the course share the same orderIndex",
		"uq_step_blocks_step_order":      "two blocks of a step share the same orderIndex",
		"uq_step_blocks_step_block":      "the same block is used more than once in a step",
		"uq_assignments_universe_course": "the course is already assigned to this universe",
	}
	referencedMessages = map[string]string{
		"fk_steps_course":         "the course still has steps",
		"fk_step_blocks_step":     "the step still has blocks",
		"fk_step_blocks_block":    "the block is used in one or more steps",
		"fk_assignments_universe": "the universe still has courses assigned",
		"fk_assignments_course":   "the course is still assigned to a universe",
	}
	missingMessages = map[string]string{
		"fk_steps_course":         "the course does not exist",
		"fk_step_blocks_step":     "the step does not exist",
		"fk_step_blocks_block":    "the block does not exist",
		"fk_assignments_universe": "the universe does not exist",
		"fk_assignments_course":   "the course does not exist",
	}
)

// translateMySQLError converts constraint violations into apperrors kinds.
//
// Other errors are wrapped with the action text and stay unexpected.
func translateMySQLError(err error, action string) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	switch mysqlErr.Number {
	case mysqlErrDuplicateEntry:
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, constraintMessage(duplicateMessages, mysqlErr.Message, "duplicate value"))
	case mysqlErrRowIsReferenced:
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, constraintMessage(referencedMessages, mysqlErr.Message, "the row is still referenced"))
	case mysqlErrNoReferencedRow:
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, constraintMessage(missingMessages, mysqlErr.Message, "a referenced row does not exist"))
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

// constraintMessage picks the message of the constraint named in the server message
func constraintMessage(messages map[string]string, serverMessage, fallback string) string {
	for name, msg := range messages {
		if strings.Contains(serverMessage, name) {
			return msg
		}
	}
	return fallback
}
