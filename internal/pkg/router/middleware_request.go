package router

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
)

const (
	// HeaderCorrelationID carries the request correlation id in and out.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted as an inbound fallback.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// clientIP resolves the caller address from proxy headers, falling back to
// the socket peer. Invalid values are ignored.
func clientIP(r *http.Request) string {
	candidates := []string{r.Header.Get("True-Client-IP"), r.Header.Get("X-Real-IP")}
	if xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); xff != "" {
		candidates = append(candidates, xff)
	}
	for _, c := range candidates {
		if addr, err := netip.ParseAddr(strings.TrimSpace(c)); err == nil {
			return addr.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.String()
	}
	return ""
}

func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

// correlationID accepts printable ASCII ids up to maxCorrelationIDLen.
func correlationID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxCorrelationIDLen {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return ""
		}
	}
	return v
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := correlationID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = correlationID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}
			next.ServeHTTP(w, r)
		})
	}
}
