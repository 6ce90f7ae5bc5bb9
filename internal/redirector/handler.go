// Package redirector implements the links-redirect HTTP handler and its
// HTTPS-upgrade companion (SPEC_FULL.md §4.13, §4.14).
package redirector

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/platform/config"
	"github.com/janm-dev/links-go/internal/statistic"
	"github.com/janm-dev/links-go/internal/store"
)

// Handler serves the link-redirect state machine over HTTP(S) and HTTP/2.
// ConfigFunc is called once per request, so handler behavior follows
// hot-reloaded configuration without any handler-side locking.
type Handler struct {
	Store      *store.Current
	ConfigFunc func() config.RedirectorConfig
	Logger     *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ServeHTTP implements the redirector state machine described in
// SPEC_FULL.md §4.13: path parses as an Id, or else is looked up as a
// vanity path; the resolved Id (if any) is redirected, otherwise 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg := h.ConfigFunc()

	w.Header().Set("Referrer-Policy", "unsafe-url")
	h.setCommonHeaders(w, cfg, redirectPage.cspStyleSrc)

	path := strings.TrimPrefix(r.URL.Path, "/")

	var (
		id       linkid.Id
		haveID   bool
		vanity   normalized.Normalized
		haveVanity bool
	)

	backend := h.Store.Get()

	switch {
	case path == "":
		h.notFound(w, r, cfg, nil)
		return
	case linkid.IsValid(path):
		parsed, err := linkid.Parse(path)
		if err != nil {
			h.notFound(w, r, cfg, nil)
			return
		}
		id, haveID = parsed, true
	default:
		vanity = normalized.New(path)
		haveVanity = true
		resolved, ok, err := backend.GetVanity(r.Context(), vanity)
		if err != nil {
			h.logger().Warn("store error resolving vanity path", "vanity", vanity.String(), "error", err)
		} else if ok {
			id, haveID = resolved, true
		}
	}

	var (
		link    normalized.Link
		haveLink bool
	)
	if haveID {
		l, ok, err := backend.GetRedirect(r.Context(), id)
		if err != nil {
			h.logger().Warn("store error resolving redirect", "id", id.String(), "error", err)
		} else if ok {
			link, haveLink = l, true
		}
	}

	// linkKeys holds every key this request resolved through: a vanity
	// path that resolved to an Id is recorded under both, so a query for
	// either one sees the hit (SPEC_FULL.md §4.10; spec.md §8 scenario 6).
	var linkKeys []string
	if haveID {
		linkKeys = append(linkKeys, id.String())
	}
	if haveVanity {
		linkKeys = append(linkKeys, vanity.String())
	}

	if !haveLink {
		h.notFound(w, r, cfg, linkKeys)
		h.logger().Info("redirect not found", "path", path, "duration", time.Since(start))
		return
	}

	status := http.StatusFound
	if r.Method != http.MethodGet {
		status = http.StatusTemporaryRedirect
	}

	w.Header().Set("Location", link.String())
	w.Header().Set("Link-ID", id.String())
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	fmt.Fprint(w, strings.ReplaceAll(redirectPage.body, "{{LINK_URL}}", link.String()))

	h.dispatchStatistics(linkKeys, r, status, cfg.Statistics)
	h.logger().Info("redirect served", "path", path, "status", status, "duration", time.Since(start))
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, cfg config.RedirectorConfig, linkKeys []string) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, notFoundPage.body)
	h.dispatchStatistics(linkKeys, r, http.StatusNotFound, cfg.Statistics)
}

// setCommonHeaders adds the headers sent regardless of outcome
// (SPEC_FULL.md §4.13).
func (h *Handler) setCommonHeaders(w http.ResponseWriter, cfg config.RedirectorConfig, styleSrc string) {
	if cfg.SendServer {
		w.Header().Set("Server", "links-go/"+Version)
	}
	if cfg.SendCSP {
		w.Header().Set("Content-Security-Policy", cspHeader(styleSrc))
	}
	if hsts := hstsValue(cfg); hsts != "" {
		w.Header().Set("Strict-Transport-Security", hsts)
	}
	if cfg.SendAltSvc {
		w.Header().Set("Alt-Svc", `h2=":443"; ma=31536000`)
	}
}

func hstsValue(cfg config.RedirectorConfig) string {
	switch cfg.HSTS {
	case config.HSTSDisable, "":
		return ""
	case config.HSTSEnable:
		return fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
	case config.HSTSIncludeSubDomains:
		return fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge)
	case config.HSTSPreload:
		return fmt.Sprintf("max-age=%d; includeSubDomains; preload", cfg.HSTSMaxAge)
	default:
		return ""
	}
}

// dispatchStatistics enqueues statistic increments without blocking the
// response: it spawns a goroutine that performs the increments and does
// not wait for it (SPEC_FULL.md §5, "fire-and-forget"). linkKeys holds
// every key the request resolved through (a vanity path and the Id it
// resolved to are both recorded), and the full enabled statistic set is
// recorded once per key so a lookup under any of them sees the hit.
func (h *Handler) dispatchStatistics(linkKeys []string, r *http.Request, statusCode int, categories []statistic.Category) {
	if len(categories) == 0 || len(linkKeys) == 0 {
		return
	}
	enabled := make(map[statistic.Category]bool, len(categories))
	for _, c := range categories {
		enabled[c] = true
	}

	var stats []statistic.Statistic
	for _, key := range linkKeys {
		stats = append(stats, statistic.FromRequest(key, r, r.TLS, statusCode, enabled)...)
	}
	if len(stats) == 0 {
		return
	}

	backend := h.Store.Get()
	logger := h.logger()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, s := range stats {
			if _, err := backend.IncrStatistic(ctx, s); err != nil {
				logger.Warn("statistic increment failed", "link", s.Link, "type", s.Type.String(), "error", err)
			}
		}
	}()
}

// Version is the redirector's self-reported version, used in the Server
// header when cfg.SendServer is set.
const Version = "0.1.0"
