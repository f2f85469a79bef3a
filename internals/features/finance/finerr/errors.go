// Package finerr holds the error kinds returned by the fee ledger, payment and gateway services.
// Every kind maps to an HTTP status and a stable error code so controllers can render it directly.
package finerr

import (
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindDuplicateLedger      Kind = "DUPLICATE_LEDGER"
	KindInvalidAmount        Kind = "INVALID_AMOUNT"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindOverpayment          Kind = "OVERPAYMENT"
	KindDuplicateTransaction Kind = "DUPLICATE_TRANSACTION"
	KindChecksumMismatch     Kind = "CHECKSUM_MISMATCH"
	KindConfiguration        Kind = "CONFIGURATION_ERROR"
	KindExceedsDue           Kind = "EXCEEDS_DUE"
	KindConflict             Kind = "CONFLICT"
)

var statusByKind = map[Kind]int{
	KindNotFound:             http.StatusNotFound,
	KindDuplicateLedger:      http.StatusConflict,
	KindInvalidAmount:        http.StatusBadRequest,
	KindInvalidInput:         http.StatusBadRequest,
	KindOverpayment:          http.StatusUnprocessableEntity,
	KindDuplicateTransaction: http.StatusConflict,
	KindChecksumMismatch:     http.StatusUnauthorized,
	KindConfiguration:        http.StatusUnprocessableEntity,
	KindExceedsDue:           http.StatusUnprocessableEntity,
	KindConflict:             http.StatusConflict,
}

// Sentinels untuk errors.Is (dibandingkan per Kind).
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrDuplicateLedger      = &Error{Kind: KindDuplicateLedger}
	ErrInvalidAmount        = &Error{Kind: KindInvalidAmount}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrOverpayment          = &Error{Kind: KindOverpayment}
	ErrDuplicateTransaction = &Error{Kind: KindDuplicateTransaction}
	ErrChecksumMismatch     = &Error{Kind: KindChecksumMismatch}
	ErrConfiguration        = &Error{Kind: KindConfiguration}
	ErrExceedsDue           = &Error{Kind: KindExceedsDue}
	ErrConflict             = &Error{Kind: KindConflict}
)

type Error struct {
	Kind    Kind
	Message string
	// DueAmount diisi untuk Overpayment / ExceedsDue supaya client bisa koreksi nominal.
	DueAmount *int64
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) HTTPStatus() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func (e *Error) ErrorCode() string { return string(e.Kind) }

func (e *Error) Details() map[string]any {
	if e.DueAmount == nil {
		return nil
	}
	return map[string]any{"due_amount": *e.DueAmount}
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error { return newf(KindNotFound, format, args...) }

func DuplicateLedger(studentRef, academicYear string, semester int) error {
	return newf(KindDuplicateLedger,
		"fee ledger already exists for student %s, academic year %s, semester %d",
		studentRef, academicYear, semester)
}

func InvalidAmount(format string, args ...any) error { return newf(KindInvalidAmount, format, args...) }

func InvalidInput(format string, args ...any) error { return newf(KindInvalidInput, format, args...) }

func Overpayment(amount, due int64) error {
	e := newf(KindOverpayment, "payment amount %d exceeds current due amount %d", amount, due)
	e.DueAmount = &due
	return e
}

func DuplicateTransaction(transactionID string) error {
	return newf(KindDuplicateTransaction, "transaction %s has already been recorded", transactionID)
}

func ChecksumMismatch() error {
	return newf(KindChecksumMismatch, "gateway checksum mismatch")
}

func Configuration(format string, args ...any) error { return newf(KindConfiguration, format, args...) }

func ExceedsDue(amount, due int64) error {
	e := newf(KindExceedsDue, "amount %d exceeds current due amount %d", amount, due)
	e.DueAmount = &due
	return e
}

// Conflict: bentrok data selain ledger/transaksi (mis. config tahun ajaran dobel, update bersamaan).
func Conflict(format string, args ...any) error { return newf(KindConflict, format, args...) }
