package cerr

import (
	"net/http"
)

//go:generate go tool stringer -type=Code -output=code_string.go code.go
type Code int

const (
	OK                      = Code(0)
	Canceled                = Code(1)
	Unknown                 = Code(2)
	InvalidArgument         = Code(3)
	NotFound                = Code(4)
	AlreadyExists           = Code(5)
	PermissionDenied        = Code(6)
	ResourceExhausted       = Code(7)
	Internal                = Code(8)
	Unavailable             = Code(9)
	Unauthenticated         = Code(10)
	PathEscape              = Code(11)
	PathNotFound            = Code(12)
	InvalidEntity           = Code(13)
	InvalidPermissionFormat = Code(14)
	InvalidOperation        = Code(15)
	NotAMember              = Code(16)
	InsufficientAccess      = Code(17)
	CommandTimeout          = Code(18)
	CommandUnavailable      = Code(19)
	ToolExecutionFailed     = Code(20)
)

// HTTPCode maps an error code to the status used for JSON error responses.
// Command failures count as server faults and map to 500.
func (c Code) HTTPCode() int {
	switch c {
	case OK:
		return http.StatusOK
	case Canceled:
		return 499
	case Unknown:
		return http.StatusInternalServerError
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists:
		return http.StatusConflict
	case PermissionDenied:
		return http.StatusForbidden
	case ResourceExhausted:
		return http.StatusTooManyRequests
	case Internal:
		return http.StatusInternalServerError
	case Unavailable:
		return http.StatusServiceUnavailable
	case Unauthenticated:
		return http.StatusUnauthorized
	case PathEscape:
		return http.StatusBadRequest
	case PathNotFound:
		return http.StatusNotFound
	case InvalidEntity:
		return http.StatusBadRequest
	case InvalidPermissionFormat:
		return http.StatusBadRequest
	case InvalidOperation:
		return http.StatusBadRequest
	case NotAMember:
		return http.StatusForbidden
	case InsufficientAccess:
		return http.StatusForbidden
	case CommandTimeout:
		return http.StatusInternalServerError
	case CommandUnavailable:
		return http.StatusInternalServerError
	case ToolExecutionFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
