package observability

import (
	"net"
	"net/http"
	"strings"
)

const DeviceIDHeader = "X-Device-Id"

// ClientMeta identifies the device and address behind a request.
type ClientMeta struct {
	DeviceID string
	IP       string
}

func ClientMetaFromRequest(r *http.Request) ClientMeta {
	return ClientMeta{
		DeviceID: strings.TrimSpace(r.Header.Get(DeviceIDHeader)),
		IP:       IPFromRequest(r),
	}
}

// IPFromRequest prefers the first X-Forwarded-For hop over the socket address.
func IPFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
