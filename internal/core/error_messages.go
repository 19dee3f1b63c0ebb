// Package core error codes.
//
// # Error Codes Reference
//
// Every error surfaced to a user is mapped to a short message, a suggested
// action and a code the user can quote when asking for help.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the file into smaller chunks
//	FILE002 - Unsupported format: Only .csv and .xlsx files are accepted
//	          Action: Save the file as CSV or Excel (.xlsx)
//	FILE003 - Malformed file: The file could not be read
//	          Action: Check that every row has the same number of fields
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV or Excel file to upload
//	FILE005 - Empty file: The uploaded file has no header row
//	          Action: Please upload a file with a header row
//	FILE006 - File not found: The file is no longer in this session
//	          Action: Upload the file again
//	FILE007 - Missing on disk: The file does not exist
//	          Action: Check the path and try again
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column: A selected column does not exist
//	COL002 - Duplicate column: Two columns would share a name
//	COL003 - Wrong column type: A chart axis needs a different column type
//	COL004 - Empty selection: No column was selected
//
// # Cleaning Errors (CLN001-CLN099)
//
//	CLN001 - Unknown operation: The cleaning operation is not supported
//
// # Chart Errors (CHT001-CHT099)
//
//	CHT001 - No numeric data: Nothing to chart (a warning, not a failure)
//	CHT002 - Render failed: The chart image could not be drawn
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Serialization failed: The data could not be written
//	EXP002 - Unknown format: Export format must be csv or excel
//	EXP003 - Output conflict: The output would replace another file in the batch
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: The working session no longer exists
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Too many uploads in progress
//	UPL002 - Too many files: The upload has more files than allowed
//	UPL003 - Bad request: The submitted form could not be read
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// # Matching
//
// A pattern matches when its target is found by errors.Is, or when its match
// func accepts the error (used for typed errors via errors.As). Error text is
// never inspected, so file names inside messages cannot change the code.
// The first match wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps a sentinel or an error type to a user message.
type errorPattern struct {
	target error
	match  func(error) bool
	msg    UserMessage
}

func (ep errorPattern) matches(err error) bool {
	if ep.target != nil && errors.Is(err, ep.target) {
		return true
	}
	return ep.match != nil && ep.match(err)
}

func isParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func isSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

// errorPatterns is ordered: specific entries before general ones.
var errorPatterns = []errorPattern{
	// File errors
	{
		target: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		target: ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "Only .csv and .xlsx files are accepted",
			Action:  "Save the file as CSV or Excel (.xlsx)",
			Code:    "FILE002",
		},
	},
	{
		target: ErrEmptyFile,
		msg: UserMessage{
			Message: "The uploaded file has no header row",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		match: isParseError,
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check that every row has the same number of fields",
			Code:    "FILE003",
		},
	},
	{
		target: ErrNoFile,
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to upload",
			Code:    "FILE004",
		},
	},
	{
		target: ErrFileNotFound,
		msg: UserMessage{
			Message: "The file is no longer in this session",
			Action:  "Upload the file again",
			Code:    "FILE006",
		},
	},
	{
		target: fs.ErrNotExist,
		msg: UserMessage{
			Message: "The file does not exist",
			Action:  "Check the path and try again",
			Code:    "FILE007",
		},
	},

	// Column errors
	{
		target: ErrUnknownColumn,
		msg: UserMessage{
			Message: "A selected column does not exist",
			Action:  "Pick columns from the current column list",
			Code:    "COL001",
		},
	},
	{
		target: ErrDuplicateColumnName,
		msg: UserMessage{
			Message: "Two columns would share the same name",
			Action:  "Give each column a distinct name",
			Code:    "COL002",
		},
	},
	{
		target: ErrColumnKind,
		msg: UserMessage{
			Message: "That column has the wrong type for this chart",
			Action:  "Choose a numeric column for values and a text column for categories",
			Code:    "COL003",
		},
	},
	{
		target: ErrEmptySelection,
		msg: UserMessage{
			Message: "No columns were selected",
			Action:  "Select at least one column to keep",
			Code:    "COL004",
		},
	},

	// Cleaning errors
	{
		target: ErrUnknownOperation,
		msg: UserMessage{
			Message: "Unknown cleaning operation",
			Action:  "Choose remove_duplicates or fill_missing_numeric",
			Code:    "CLN001",
		},
	},

	// Chart errors
	{
		target: ErrNoNumericData,
		msg: UserMessage{
			Message: "No numeric data available for charts",
			Action:  "Select at least one numeric column",
			Code:    "CHT001",
		},
	},
	{
		target: ErrChartUnavailable,
		msg: UserMessage{
			Message: "That chart is not available for this data",
			Action:  "Pick one of the charts listed for the file",
			Code:    "CHT002",
		},
	},
	{
		target: ErrChartFailed,
		msg: UserMessage{
			Message: "The chart could not be drawn",
			Action:  "Try a different chart or fewer rows",
			Code:    "CHT002",
		},
	},

	// Export errors
	{
		target: ErrOutputConflict,
		msg: UserMessage{
			Message: "The output would replace another file in the batch",
			Action:  "Choose another --out directory or a different target format",
			Code:    "EXP003",
		},
	},
	{
		match: isSerializationError,
		msg: UserMessage{
			Message: "The data could not be written in that format",
			Action:  "Try the other export format or shorten very long text cells",
			Code:    "EXP001",
		},
	},
	{
		target: ErrUnknownTarget,
		msg: UserMessage{
			Message: "Unknown export format",
			Action:  "Export as csv or excel",
			Code:    "EXP002",
		},
	},

	// Session errors
	{
		target: ErrSessionNotFound,
		msg: UserMessage{
			Message: "Your working session has expired",
			Action:  "Reload the page and upload your files again",
			Code:    "SES001",
		},
	},

	// Upload errors
	{
		target: ErrTooManyIngests,
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		target: ErrTooManyFiles,
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload fewer files at a time",
			Code:    "UPL002",
		},
	},
	{
		target: ErrBadRequest,
		msg: UserMessage{
			Message: "The submitted form could not be read",
			Action:  "Reload the page and try again",
			Code:    "UPL003",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Rate limiting
	{
		target: ErrRateLimited,
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback with code ERR000 is returned.
//
// Example:
//
//	msg := MapError(&UnknownColumnError{Name: "price"})
//	// msg.Code == "COL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, ep := range errorPatterns {
		if ep.matches(err) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps a technical error to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
