package statistic

import (
	"crypto/tls"
	"net/http"
	"strconv"
)

// FromRequest inspects req (and, for a TLS-terminated connection,
// connState) and returns every [Statistic] whose [Type] is enabled by
// categories, for the given link key. Link is the textual form of whatever
// resolved the request (an Id or a Normalized vanity path).
func FromRequest(link string, req *http.Request, connState *tls.ConnectionState, statusCode int, enabled map[Category]bool) []Statistic {
	now := Now()
	var out []Statistic

	add := func(typ Type, data string) {
		out = append(out, Statistic{Link: link, Type: typ, Data: data, Time: now})
	}

	for category, types := range typesForCategory {
		if !enabled[category] {
			continue
		}
		for _, typ := range types {
			switch typ {
			case Request:
				add(Request, "")
			case HostRequest:
				add(HostRequest, requestHost(req))
			case SniRequest:
				if connState != nil {
					add(SniRequest, connState.ServerName)
				}
			case StatusCode:
				add(StatusCode, strconv.Itoa(statusCode))
			case HttpVersion:
				add(HttpVersion, req.Proto)
			case TlsVersion:
				if connState != nil {
					add(TlsVersion, tlsVersionName(connState.Version))
				}
			case TlsCipherSuite:
				if connState != nil {
					add(TlsCipherSuite, tls.CipherSuiteName(connState.CipherSuite))
				}
			case UserAgent:
				add(UserAgent, req.UserAgent())
			case UserAgentMobile:
				add(UserAgentMobile, clientHint(req, "Sec-CH-UA-Mobile"))
			case UserAgentPlatform:
				add(UserAgentPlatform, clientHint(req, "Sec-CH-UA-Platform"))
			}
		}
	}

	return out
}

func requestHost(req *http.Request) string {
	if h := req.URL.Host; h != "" {
		return h
	}
	return req.Host
}

func clientHint(req *http.Request, header string) string {
	return req.Header.Get(header)
}

func tlsVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS1.0"
	case tls.VersionTLS11:
		return "TLS1.1"
	case tls.VersionTLS12:
		return "TLS1.2"
	case tls.VersionTLS13:
		return "TLS1.3"
	default:
		return "unknown"
	}
}
