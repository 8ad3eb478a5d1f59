package consensus

import (
	"errors"
	"fmt"
)

// Infrastructure sentinels.  These are part of the chain protocol rather
// than validation verdicts.  ErrServiceStopped passes through validators to
// the caller unchanged.  ErrNotFound and ErrUnspentOutput are the chain's
// miss replies; validators interpret them at the lookups that expect them
// (a missing previous transaction becomes a rejection, an unspent output
// lets validation continue).
var (
	// ErrServiceStopped is returned on callbacks that were pending when
	// the enclosing service shut down.
	ErrServiceStopped = errors.New("service stopped")

	// ErrNotFound is the chain's miss sentinel for transaction lookups.
	ErrNotFound = errors.New("not found")

	// ErrUnspentOutput is the chain's miss sentinel for spend lookups.
	// For validation this is the expected, successful reply.
	ErrUnspentOutput = errors.New("unspent output")
)

// ErrorCode identifies a kind of validation rejection.  Consumers compare
// codes, not messages.
type ErrorCode int

const (
	// validate tx
	ErrCoinbaseTransaction ErrorCode = iota
	ErrIsNotStandard
	ErrDuplicate
	ErrDoubleSpend
	ErrInputNotFound

	// check_transaction
	ErrEmptyTransaction
	ErrOutputValueOverflow
	ErrInvalidCoinbaseScriptSize
	ErrPreviousOutputNull

	// check_block
	ErrSizeLimits
	ErrProofOfWork
	ErrFuturisticTimestamp
	ErrFirstNotCoinbase
	ErrExtraCoinbases
	ErrTooManySigs
	ErrMerkleMismatch

	// accept_block
	ErrIncorrectProofOfWork
	ErrTimestampTooEarly
	ErrNonFinalTransaction
	ErrCheckpointsFailed

	// connect_block
	ErrDuplicateOrSpent
	ErrValidateInputsFailed
	ErrFeesOutOfRange
	ErrCoinbaseTooLarge
)

// errorCodeStrings maps codes to their stable names for logging.
var errorCodeStrings = map[ErrorCode]string{
	ErrCoinbaseTransaction:       "ErrCoinbaseTransaction",
	ErrIsNotStandard:             "ErrIsNotStandard",
	ErrDuplicate:                 "ErrDuplicate",
	ErrDoubleSpend:               "ErrDoubleSpend",
	ErrInputNotFound:             "ErrInputNotFound",
	ErrEmptyTransaction:          "ErrEmptyTransaction",
	ErrOutputValueOverflow:       "ErrOutputValueOverflow",
	ErrInvalidCoinbaseScriptSize: "ErrInvalidCoinbaseScriptSize",
	ErrPreviousOutputNull:        "ErrPreviousOutputNull",
	ErrSizeLimits:                "ErrSizeLimits",
	ErrProofOfWork:               "ErrProofOfWork",
	ErrFuturisticTimestamp:       "ErrFuturisticTimestamp",
	ErrFirstNotCoinbase:          "ErrFirstNotCoinbase",
	ErrExtraCoinbases:            "ErrExtraCoinbases",
	ErrTooManySigs:               "ErrTooManySigs",
	ErrMerkleMismatch:            "ErrMerkleMismatch",
	ErrIncorrectProofOfWork:      "ErrIncorrectProofOfWork",
	ErrTimestampTooEarly:         "ErrTimestampTooEarly",
	ErrNonFinalTransaction:       "ErrNonFinalTransaction",
	ErrCheckpointsFailed:         "ErrCheckpointsFailed",
	ErrDuplicateOrSpent:          "ErrDuplicateOrSpent",
	ErrValidateInputsFailed:      "ErrValidateInputsFailed",
	ErrFeesOutOfRange:            "ErrFeesOutOfRange",
	ErrCoinbaseTooLarge:          "ErrCoinbaseTooLarge",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError is a validation rejection.  It is terminal for the object being
// validated; the caller decides whether to ban the peer, park the object as
// an orphan, or discard it.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsValidateFailed reports whether err is any validation rejection, as
// opposed to an infrastructure error.  It is the coarse condition callers
// match on when they only care that the object was refused.
func IsValidateFailed(err error) bool {
	var rerr RuleError
	return errors.As(err, &rerr)
}

// IsRuleCode reports whether err is a RuleError carrying the given code.
func IsRuleCode(err error, c ErrorCode) bool {
	var rerr RuleError
	return errors.As(err, &rerr) && rerr.ErrorCode == c
}
