// Package uri decomposes absolute and origin-relative request targets. The same
// parser serves both client request construction and server-side target parsing,
// so absent scheme or host leave the fields empty instead of erroring.
package uri

import (
	"strconv"
	"strings"

	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/kv"
)

type Uri struct {
	scheme   string
	username string
	password string
	host     string
	path     string
	rawQuery string
	port     int
	query    *kv.Storage
}

// Parse accepts either an absolute URL
// (scheme://[user[:pass]@]host[:port]/path[?query]) or an origin-relative target
// (/path?query). The derived query map decodes both keys and values; on duplicate
// keys the last occurrence wins.
func Parse(raw string) (*Uri, error) {
	if len(raw) == 0 {
		return nil, status.ErrBadURI
	}

	u := &Uri{query: kv.New()}
	rest := raw

	if !strings.HasPrefix(rest, "/") {
		scheme, tail, found := strings.Cut(rest, "://")
		if !found || len(scheme) == 0 {
			return nil, status.ErrBadURI
		}

		u.scheme = strings.ToLower(scheme)
		rest = tail

		authority := rest
		if slash := strings.IndexByte(rest, '/'); slash != -1 {
			authority, rest = rest[:slash], rest[slash:]
		} else if question := strings.IndexByte(rest, '?'); question != -1 {
			// query right after the authority, e.g. http://host?k=v
			authority, rest = rest[:question], rest[question:]
		} else {
			rest = ""
		}

		if err := u.parseAuthority(authority); err != nil {
			return nil, err
		}
	}

	u.path = rest
	if question := strings.IndexByte(rest, '?'); question != -1 {
		u.path, u.rawQuery = rest[:question], rest[question+1:]
	}

	if len(u.path) == 0 {
		u.path = "/"
	}

	if err := u.parseQuery(); err != nil {
		return nil, err
	}

	return u, nil
}

func (u *Uri) parseAuthority(authority string) error {
	if at := strings.LastIndexByte(authority, '@'); at != -1 {
		userinfo := authority[:at]
		authority = authority[at+1:]
		u.username, u.password, _ = strings.Cut(userinfo, ":")
	}

	host := authority
	if colon := strings.LastIndexByte(authority, ':'); colon != -1 {
		port, err := strconv.Atoi(authority[colon+1:])
		if err != nil || port < 0 || port > 0xFFFF {
			return status.ErrBadPort
		}

		host, u.port = authority[:colon], port
	}

	if len(host) == 0 {
		return status.ErrBadURI
	}

	u.host = host

	return nil
}

func (u *Uri) parseQuery() error {
	return ParseQuery(u.rawQuery, u.query)
}

// ParseQuery decodes a raw query string into the storage. Both keys and values
// are percent-decoded, the last occurrence of a duplicate key wins.
func ParseQuery(raw string, into *kv.Storage) error {
	for pairs := raw; len(pairs) > 0; {
		var pair string
		pair, pairs, _ = strings.Cut(pairs, "&")
		if len(pair) == 0 {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := QueryUnescape(rawKey)
		if err != nil {
			return err
		}

		value, err := QueryUnescape(rawValue)
		if err != nil {
			return err
		}

		into.Set(key, value)
	}

	return nil
}

// SetScheme is the only post-parse mutator: it's used when a plaintext parse is
// later confirmed to be on a secure transport.
func (u *Uri) SetScheme(scheme string) {
	u.scheme = strings.ToLower(scheme)
}

func (u *Uri) Scheme() string {
	return u.scheme
}

func (u *Uri) Host() string {
	return u.host
}

// Port returns the explicitly given port, or the default one inferred from the
// scheme (80 for http, 443 for https), or 0 when neither applies.
func (u *Uri) Port() int {
	if u.port != 0 {
		return u.port
	}

	switch u.scheme {
	case "http", "ws":
		return 80
	case "https", "wss":
		return 443
	default:
		return 0
	}
}

func (u *Uri) Path() string {
	return u.path
}

func (u *Uri) RawQuery() string {
	return u.rawQuery
}

func (u *Uri) Username() string {
	return u.username
}

func (u *Uri) Password() string {
	return u.password
}

// QueryGet returns the decoded value of the query key, empty string when absent.
func (u *Uri) QueryGet(key string) string {
	return u.query.Value(key)
}

// Query exposes the decoded query map.
func (u *Uri) Query() *kv.Storage {
	return u.query
}

// String reconstructs the URL from the parsed fields. Re-parsing the result
// yields an equal field set.
func (u *Uri) String() string {
	var b strings.Builder

	if len(u.scheme) > 0 {
		b.WriteString(u.scheme)
		b.WriteString("://")

		if len(u.username) > 0 {
			b.WriteString(u.username)
			if len(u.password) > 0 {
				b.WriteByte(':')
				b.WriteString(u.password)
			}
			b.WriteByte('@')
		}

		b.WriteString(u.host)

		if u.port != 0 && u.port != defaultPort(u.scheme) {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(u.port))
		}
	}

	b.WriteString(u.path)

	if len(u.rawQuery) > 0 {
		b.WriteByte('?')
		b.WriteString(u.rawQuery)
	}

	return b.String()
}

func defaultPort(scheme string) int {
	switch scheme {
	case "http", "ws":
		return 80
	case "https", "wss":
		return 443
	default:
		return 0
	}
}
