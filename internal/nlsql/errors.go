package nlsql

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrGeneration marks an LLM failure: the call itself failed or no single
// executable statement could be extracted from the completion.
var ErrGeneration = errors.New("sql generation failed")

// ErrorClass splits execution failures for the retry policy.
type ErrorClass int

const (
	// Recoverable: the database rejected the statement for a reason a better
	// prompt can plausibly fix (bad column/table, syntax, types).
	Recoverable ErrorClass = iota
	// Unrecoverable: infrastructure trouble (connection, permissions,
	// timeout). Terminates the turn without consuming a retry.
	Unrecoverable
)

// MySQL error numbers the retry loop treats as statement-level rejections.
var recoverableMySQLCodes = map[uint16]bool{
	1052: true, // ambiguous column
	1054: true, // unknown column
	1064: true, // syntax error
	1146: true, // table doesn't exist
	1241: true, // operand should contain N columns
	1292: true, // incorrect value / type mismatch
}

var unrecoverableMySQLCodes = map[uint16]bool{
	1040: true, // too many connections
	1044: true, // access denied for database
	1045: true, // access denied for user
	1142: true, // command denied
	1317: true, // query interrupted
	2006: true, // server gone away
	2013: true, // lost connection
}

// ClassifyExecError decides whether an execution failure feeds the retry
// loop or ends the turn. Unknown errors are unrecoverable: retrying a
// failure we cannot name wastes LLM calls.
func ClassifyExecError(err error) ErrorClass {
	if err == nil {
		return Recoverable
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Unrecoverable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Unrecoverable
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch {
		case recoverableMySQLCodes[myErr.Number]:
			return Recoverable
		case unrecoverableMySQLCodes[myErr.Number]:
			return Unrecoverable
		}
	}

	// Driver-agnostic fallback (sqlite in tests, odd driver wrappers).
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such column"),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "unknown column"),
		strings.Contains(msg, "syntax error"),
		strings.Contains(msg, "ambiguous column"):
		return Recoverable
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "timeout"):
		return Unrecoverable
	}
	return Unrecoverable
}
