package helper

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// codedError: error dari service yang tahu status HTTP & kode domainnya sendiri.
type codedError interface {
	error
	HTTPStatus() int
	ErrorCode() string
}

type detailedError interface {
	Details() map[string]any
}

// FromFiberError mengubah *fiber.Error menjadi response JSON konsisten.
// Jika bukan *fiber.Error, fallback ke 500 dengan pesan asli.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, err.Error())
}

// FromServiceError: error service → response JSON.
// - error domain (punya HTTPStatus/ErrorCode) → status & kode sesuai
// - *fiber.Error → FromFiberError
// - timeout context → 504
// - selain itu → 500, pesan asli hanya di log
func FromServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	var ce codedError
	if errors.As(err, &ce) {
		var details map[string]any
		var de detailedError
		if errors.As(err, &de) {
			details = de.Details()
		}
		return JsonErrorCode(c, ce.HTTPStatus(), ce.ErrorCode(), ce.Error(), details)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return FromFiberError(c, fe)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return JsonError(c, fiber.StatusGatewayTimeout, "request timeout")
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.OriginalURL(), err)
	return JsonError(c, fiber.StatusInternalServerError, "internal server error")
}
