package errors

import (
	"errors"
	"fmt"
)

// Rejection classes for inbound alert traffic. Handlers map these to HTTP
// statuses; everything else is treated as internal.
var (
	ErrPayloadTooLarge        = errors.New("payload too large")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrUnknownChannel         = errors.New("unknown channel")
	ErrMalformedPayload       = errors.New("malformed payload")
	ErrWrongIntegration       = errors.New("wrong integration endpoint")
	ErrRateLimited            = errors.New("rate limited")
)

func NewPayloadTooLarge(format string, a ...interface{}) error {
	return wrap(ErrPayloadTooLarge, format, a...)
}

func NewUnsupportedContentType(format string, a ...interface{}) error {
	return wrap(ErrUnsupportedContentType, format, a...)
}

func NewUnknownChannel(format string, a ...interface{}) error {
	return wrap(ErrUnknownChannel, format, a...)
}

func NewMalformedPayload(format string, a ...interface{}) error {
	return wrap(ErrMalformedPayload, format, a...)
}

func NewWrongIntegration(format string, a ...interface{}) error {
	return wrap(ErrWrongIntegration, format, a...)
}

func NewRateLimited(format string, a ...interface{}) error {
	return wrap(ErrRateLimited, format, a...)
}

func wrap(class error, format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", class, fmt.Sprintf(format, a...))
}

func IsPayloadTooLarge(err error) bool {
	return errors.Is(err, ErrPayloadTooLarge)
}

func IsUnsupportedContentType(err error) bool {
	return errors.Is(err, ErrUnsupportedContentType)
}

func IsUnknownChannel(err error) bool {
	return errors.Is(err, ErrUnknownChannel)
}

func IsMalformedPayload(err error) bool {
	return errors.Is(err, ErrMalformedPayload)
}

func IsWrongIntegration(err error) bool {
	return errors.Is(err, ErrWrongIntegration)
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsRejection reports whether err belongs to any rejection class, i.e. the
// request was refused rather than failed.
func IsRejection(err error) bool {
	return IsPayloadTooLarge(err) ||
		IsUnsupportedContentType(err) ||
		IsUnknownChannel(err) ||
		IsMalformedPayload(err) ||
		IsWrongIntegration(err) ||
		IsRateLimited(err)
}
