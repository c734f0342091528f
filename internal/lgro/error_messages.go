package lgro

// # Error Codes Reference
//
// Operator-facing messages for reorganization failures. Codes are quoted in
// run summaries and on the web plan page.
//
// # Reorganization Errors (LGR001-LGR099)
//
// Matched with errors.Is against the package sentinels:
//
//	LGR001 - Dataset not found: No reorganization file for that year
//	LGR002 - Dataset malformed: The reorganization file failed validation
//	LGR003 - Not found: A named county or district is not in the gazetteer
//	LGR004 - Ambiguous: A name matched more than one active entry
//	LGR005 - Type mismatch: An existing district has a different district type
//	LGR006 - Dependency unmet: Skipped because an earlier step failed
//	LGR007 - Already defunct: The district was abolished before this step ran
//
// # Database Errors (DB001-DB099)
//
// Matched case-insensitively on the error text, first match wins:
//
//	DB001 - Duplicate key          "duplicate key"
//	DB002 - Unique constraint      "unique constraint", "violates unique"
//	DB003 - Foreign key            "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused     "connection refused"
//	DB005 - Connection reset       "connection reset"
//	DB006 - Timeout                "timeout", "context deadline exceeded"
//	DB007 - Deadlock               "deadlock"
//	DB008 - Cancelled              "context canceled"
//
// A persistence failure no pattern recognises maps to DB000. Anything else
// falls back to ERR000; check the log for the underlying error.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
)

// UserMessage is an operator-facing description of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Reference code
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages are checked in order before the text patterns.
var sentinelMessages = []sentinelMessage{
	{ErrDatasetNotFound, UserMessage{
		Message: "No reorganization dataset exists for that year",
		Action:  "Check the year and that updates/lgro-<year>.json is under the data root",
		Code:    "LGR001",
	}},
	{ErrDatasetMalformed, UserMessage{
		Message: "The reorganization dataset is malformed",
		Action:  "Fix the field named in the error and run again",
		Code:    "LGR002",
	}},
	{ErrEntityNotFound, UserMessage{
		Message: "A named county or district is not in the gazetteer",
		Action:  "Check the spelling against the gazetteer index name",
		Code:    "LGR003",
	}},
	{ErrEntityAmbiguous, UserMessage{
		Message: "A name matched more than one active gazetteer entry",
		Action:  "Resolve the duplicate entries in the gazetteer before running again",
		Code:    "LGR004",
	}},
	{ErrTypeMismatch, UserMessage{
		Message: "An existing district has a different district type",
		Action:  "Correct the district_type in the dataset or the gazetteer",
		Code:    "LGR005",
	}},
	{ErrDependencyUnmet, UserMessage{
		Message: "Skipped because an earlier step for this district failed",
		Action:  "Fix the earlier failure and run again",
		Code:    "LGR006",
	}},
	{gazetteer.ErrNotActive, UserMessage{
		Message: "The district was already defunct",
		Action:  "Check whether it is listed under more than one new district",
		Code:    "LGR007",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{
		Message: "A record with this id already exists",
		Action:  "Check the county's next district id against the districts table",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check the gazetteer for an existing entry with that name",
		Code:    "DB002",
	}},
	{"violates unique", UserMessage{
		Message: "A duplicate value was found",
		Action:  "Check the gazetteer for an existing entry with that name",
		Code:    "DB002",
	}},
	{"foreign key constraint", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Check the county, district type and town type exist",
		Code:    "DB003",
	}},
	{"violates foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Check the county, district type and town type exist",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Check DATABASE_URL and that the server is running",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Run again; completed steps are detected as existing",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Run again later",
		Code:    "DB006",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Operation timed out",
		Action:  "Run again later",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Run again",
		Code:    "DB007",
	}},
	{"context canceled", UserMessage{
		Message: "The run was cancelled",
		Action:  "Run again when ready",
		Code:    "DB008",
	}},
}

var persistenceMessage = UserMessage{
	Message: "A database write or read failed",
	Action:  "Check the log for the database error",
	Code:    "DB000",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for details",
	Code:    "ERR000",
}

// MapError converts an error to an operator-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if errors.Is(err, ErrPersistenceFailure) {
		return persistenceMessage
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
