package status

// HTTPError is an error carrying the response code it should be reported with.
// Errors of this kind are compared by value, so they remain errors.Is-friendly.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrCloseConnection = NewError(CloseConnection, "actively closing the connection")
	ErrPaused          = NewError(CloseConnection, "parser is paused")
	ErrShutdown        = NewError(CloseConnection, "no more messages expected on this connection")

	// Framing errors. Any of them desynchronizes the stream, so the connection
	// must be dropped by the caller.
	ErrBadRequest              = NewError(BadRequest, "bad request")
	ErrInvalidMethod           = NewError(NotImplemented, "invalid HTTP method")
	ErrUnsupportedProtocol     = NewError(HTTPVersionNotSupported, "invalid HTTP version")
	ErrInvalidStatusCode       = NewError(BadRequest, "invalid HTTP status code")
	ErrInvalidHeaderToken      = NewError(BadRequest, "invalid character in header")
	ErrInvalidContentLength    = NewError(BadRequest, "invalid character in content-length header")
	ErrUnexpectedContentLength = NewError(BadRequest, "unexpected content-length header")
	ErrInvalidChunkSize        = NewError(BadRequest, "invalid character in chunk size")
	ErrHeaderOverflow          = NewError(RequestHeaderFieldsTooLarge, "too many header bytes seen")
	ErrTooLongRequestLine      = NewError(BadRequest, "request line is too long")
	ErrTooLongResponseLine     = NewError(BadRequest, "response line is too long")
	ErrURITooLong              = NewError(RequestURITooLong, "request URI too long")
	ErrTooManyHeaders          = NewError(RequestHeaderFieldsTooLarge, "too many headers")

	// Codec errors. The caller decides whether to treat them as fatal for the
	// whole request or substitute an empty value.
	ErrURLDecoding = NewError(BadRequest, "invalid urlencoded sequence")
	ErrBadQuery    = NewError(BadRequest, "bad URI query")
	ErrBadURI      = NewError(BadRequest, "malformed URI")
	ErrBadPort     = NewError(BadRequest, "invalid port")

	ErrNotFound            = NewError(NotFound, "not found")
	ErrInternalServerError = NewError(InternalServerError, "internal server error")
	ErrNotImplemented      = NewError(NotImplemented, "not implemented")
	ErrMethodNotAllowed    = NewError(MethodNotAllowed, "method not allowed")
	ErrBodyTooLarge        = NewError(RequestEntityTooLarge, "request body is too large")
	ErrRequestTimeout      = NewError(RequestTimeout, "request timeout")
)
