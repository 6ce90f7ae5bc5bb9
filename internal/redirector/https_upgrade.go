package redirector

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/janm-dev/links-go/internal/platform/config"
)

// HTTPSUpgradeHandler redirects a plaintext HTTP request to the same path
// and query under https (SPEC_FULL.md §4.14). It never consults the store.
type HTTPSUpgradeHandler struct {
	ConfigFunc func() config.RedirectorConfig
	Logger     *slog.Logger
}

func (h *HTTPSUpgradeHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *HTTPSUpgradeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg := h.ConfigFunc()

	w.Header().Set("Referrer-Policy", "no-referrer")
	h.setCommonHeaders(w, cfg)

	host := r.Host
	if host == "" {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, badRequestPage.body)
		h.logger().Info("https upgrade rejected: missing host header", "duration", time.Since(start))
		return
	}

	target := "https://" + host + r.URL.RequestURI()

	status := http.StatusFound
	if r.Method != http.MethodGet {
		status = http.StatusTemporaryRedirect
	}

	w.Header().Set("Location", target)
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	fmt.Fprint(w, httpsRedirectPage.body)
	h.logger().Info("https upgrade redirect served", "target", target, "status", status, "duration", time.Since(start))
}

func (h *HTTPSUpgradeHandler) setCommonHeaders(w http.ResponseWriter, cfg config.RedirectorConfig) {
	if cfg.SendServer {
		w.Header().Set("Server", "links-go/"+Version)
	}
	if cfg.SendCSP {
		w.Header().Set("Content-Security-Policy", cspHeader(httpsRedirectPage.cspStyleSrc))
	}
	if cfg.SendAltSvc {
		w.Header().Set("Alt-Svc", `h2=":443"; ma=31536000`)
	}
}
