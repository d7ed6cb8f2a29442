package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are "<MODULE>_<NNN>".
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
)

// Aliases
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Nodule Module Error Codes
const (
	ErrCodeNotANoduleReference ErrorCode = "NOD_001"
	ErrCodeMeasurementNotFound ErrorCode = "NOD_002"
	ErrCodeCategoryOutOfRange  ErrorCode = "NOD_003"
	ErrCodeEmptyInput          ErrorCode = "NOD_004"
	ErrCodeBatchTooLarge       ErrorCode = "NOD_005"
)

// Infrastructure Error Codes
const (
	ErrCodeCacheMiss        ErrorCode = "CACHE_001"
	ErrCodeCacheUnavailable ErrorCode = "CACHE_002"

	ErrCodeDBConnectionError ErrorCode = "DB_001"
	ErrCodeDBQueryError      ErrorCode = "DB_002"
	ErrCodeDBMigrationError  ErrorCode = "DB_003"

	ErrCodeMQPublishFailed ErrorCode = "MQ_001"
	ErrCodeMQConsumeFailed ErrorCode = "MQ_002"
	ErrCodeMQClosed        ErrorCode = "MQ_003"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,

	ErrCodeNotANoduleReference: http.StatusUnprocessableEntity,
	ErrCodeMeasurementNotFound: http.StatusUnprocessableEntity,
	ErrCodeCategoryOutOfRange:  http.StatusBadRequest,
	ErrCodeEmptyInput:          http.StatusBadRequest,
	ErrCodeBatchTooLarge:       http.StatusRequestEntityTooLarge,

	ErrCodeCacheMiss:        http.StatusNotFound,
	ErrCodeCacheUnavailable: http.StatusServiceUnavailable,

	ErrCodeDBConnectionError: http.StatusServiceUnavailable,
	ErrCodeDBQueryError:      http.StatusInternalServerError,
	ErrCodeDBMigrationError:  http.StatusInternalServerError,

	ErrCodeMQPublishFailed: http.StatusBadGateway,
	ErrCodeMQConsumeFailed: http.StatusBadGateway,
	ErrCodeMQClosed:        http.StatusServiceUnavailable,
}

// ErrorCodeMessage maps error codes to default human-readable messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",

	ErrCodeNotANoduleReference: "text does not reference a nodule",
	ErrCodeMeasurementNotFound: "no nodule measurement found",
	ErrCodeCategoryOutOfRange:  "category out of range",
	ErrCodeEmptyInput:          "input text is empty",
	ErrCodeBatchTooLarge:       "batch exceeds maximum size",

	ErrCodeCacheMiss:        "cache miss",
	ErrCodeCacheUnavailable: "cache unavailable",

	ErrCodeDBConnectionError: "database connection error",
	ErrCodeDBQueryError:      "database query error",
	ErrCodeDBMigrationError:  "database migration error",

	ErrCodeMQPublishFailed: "message publish failed",
	ErrCodeMQConsumeFailed: "message consume failed",
	ErrCodeMQClosed:        "message client closed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode, 500 when unmapped.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError reports whether the code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether the code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the module prefix of a code ("NOD", "DB", ...).
func ModuleForCode(code ErrorCode) string {
	parts := strings.SplitN(string(code), "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "UNKNOWN"
	}
	return parts[0]
}

//Personal.AI order the ending
