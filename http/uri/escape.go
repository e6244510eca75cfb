package uri

import (
	"github.com/indigo-web/utils/uf"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/internal/hexconv"
)

const upperhex = "0123456789ABCDEF"

type encoding uint8

const (
	encodePath encoding = iota + 1
	encodeQuery
)

// QueryEscape escapes the string so it can be safely placed inside a URI query,
// following the form-encoding convention: space becomes '+', everything outside
// the unreserved set becomes %XX.
func QueryEscape(s string) string {
	return escape(s, encodeQuery)
}

// PathEscape escapes the string so it can be safely placed inside a URI path
// segment. Path delimiters and sub-delims stay intact.
func PathEscape(s string) string {
	return escape(s, encodePath)
}

// QueryUnescape reverses QueryEscape: '+' turns back into space, %XX sequences
// are decoded. Truncated or non-hex sequences yield status.ErrURLDecoding.
func QueryUnescape(s string) (string, error) {
	return unescape(s, encodeQuery)
}

// PathUnescape reverses PathEscape. Unlike QueryUnescape, '+' is kept as-is.
func PathUnescape(s string) (string, error) {
	return unescape(s, encodePath)
}

func escape(s string, mode encoding) string {
	spaces, hexCount := 0, 0
	for i := 0; i < len(s); i++ {
		char := s[i]
		if shouldEscape(char, mode) {
			if char == ' ' && mode == encodeQuery {
				spaces++
			} else {
				hexCount++
			}
		}
	}

	if spaces == 0 && hexCount == 0 {
		return s
	}

	buff := make([]byte, 0, len(s)+2*hexCount)

	for i := 0; i < len(s); i++ {
		switch char := s[i]; {
		case char == ' ' && mode == encodeQuery:
			buff = append(buff, '+')
		case shouldEscape(char, mode):
			buff = append(buff, '%', upperhex[char>>4], upperhex[char&0xf])
		default:
			buff = append(buff, char)
		}
	}

	return uf.B2S(buff)
}

func unescape(s string, mode encoding) (string, error) {
	plain := true
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%':
			plain = false
		case '+':
			plain = mode != encodeQuery && plain
		}
	}

	if plain {
		return s, nil
	}

	buff := make([]byte, 0, len(s))

	for i := 0; i < len(s); i++ {
		switch char := s[i]; char {
		case '%':
			if i+2 >= len(s) || !hexconv.Is(s[i+1]) || !hexconv.Is(s[i+2]) {
				return "", status.ErrURLDecoding
			}

			buff = append(buff, hexconv.Halfbyte(s[i+1])<<4|hexconv.Halfbyte(s[i+2]))
			i += 2
		case '+':
			if mode == encodeQuery {
				buff = append(buff, ' ')
			} else {
				buff = append(buff, '+')
			}
		default:
			buff = append(buff, char)
		}
	}

	return uf.B2S(buff), nil
}

func shouldEscape(char byte, mode encoding) bool {
	switch {
	case 'a' <= char && char <= 'z',
		'A' <= char && char <= 'Z',
		'0' <= char && char <= '9':
		return false
	}

	switch char {
	case '-', '_', '.', '~':
		return false
	}

	if mode == encodePath {
		switch char {
		case '$', '&', '+', ',', '/', ':', ';', '=', '@':
			return false
		}
	}

	return true
}
