package apperr

import (
	"errors"
	"net/http"
)

// Envelope is the fixed wire shape for every API response. Field order is part
// of the client contract.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Code    string `json:"code"`
}

// Wire codes, stable for client-side branching.
const (
	CodeAlreadyExists      = "ENTITY_ALREADY_EXISTS"
	CodeNotFound           = "ENTITY_NOT_FOUND"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidOperation   = "INVALID_OPERATION"
	CodeValidation         = "VALIDATION_ERROR"
	CodeApplication        = "APPLICATION_ERROR"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeInternal           = "INTERNAL_ERROR"
)

// internalMessage replaces unexpected error text on the wire. The original
// error is logged by the HTTP layer, never echoed to the client.
const internalMessage = "an internal error occurred"

type mapping struct {
	status int
	code   string
}

var kindTable = map[Kind]mapping{
	KindAlreadyExists:      {http.StatusConflict, CodeAlreadyExists},
	KindNotFound:           {http.StatusNotFound, CodeNotFound},
	KindEmailNotVerified:   {http.StatusForbidden, CodeEmailNotVerified},
	KindAccountDeactivated: {http.StatusForbidden, CodeAccountDeactivated},
	KindUnauthenticated:    {http.StatusUnauthorized, CodeUnauthorized},
	KindForbidden:          {http.StatusForbidden, CodeForbidden},
	KindInvalidOperation:   {http.StatusBadRequest, CodeInvalidOperation},
	KindValidation:         {http.StatusBadRequest, CodeValidation},
	KindApplication:        {http.StatusBadRequest, CodeApplication},
	KindMalformedArgument:  {http.StatusBadRequest, CodeInvalidArgument},
}

// Translate maps any error to an HTTP status and wire envelope. It is total:
// anything outside the closed kind set becomes a 500 with a safe message.
func Translate(err error) (int, Envelope) {
	var appErr *Error
	if errors.As(err, &appErr) {
		if m, ok := kindTable[appErr.Kind]; ok {
			return m.status, Envelope{Message: appErr.Message, Code: m.code}
		}
	}
	return http.StatusInternalServerError, Envelope{Message: internalMessage, Code: CodeInternal}
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
