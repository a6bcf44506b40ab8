package http

import (
	"net"
	"net/http"
	"strings"
	"unicode"

	"github.com/jeplugins/request-board/internal/core/domain"
)

// VoterTokenHeader carries the client-persisted voter token on requests that
// have no body of their own.
const VoterTokenHeader = "X-Voter-Token"

// ResolveVoter derives the best-effort voter identity for a request. Either
// field may come back empty; that is a valid low-confidence identity, not an
// error.
func ResolveVoter(r *http.Request, token string) domain.VoterRecord {
	if token == "" {
		token = r.Header.Get(VoterTokenHeader)
	}
	return domain.VoterRecord{
		IP:    clientIP(r),
		Token: sanitize(token),
	}
}

// clientIP prefers an explicit client header, then the first forwarded-for
// entry, then the connection address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("Client-Ip"); ip != "" {
		return sanitize(ip)
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return sanitize(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return sanitize(host)
}

// sanitize reduces a client-supplied value to a plain trimmed string with no
// control characters or markup.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case r == '<' || r == '>':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
