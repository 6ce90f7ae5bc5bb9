// Package kvstore implements a [store.Backend] on top of a Redis/Valkey
// server via valkey-go, the recommended backend for most deployments: data
// is durable and shared across any number of links instances connecting
// to the same server.
//
// Keys are laid out as:
//   - "links:redirect:<Id>" (string value: the destination URL)
//   - "links:vanity:<Normalized>" (string value: the destination Id)
//   - "links:stat:<type>:<link>:<data>:<time>" (string value: the counter)
//
// Statistic keys are not part of the key layout documented upstream
// (which reserves the "links:stat:*" prefix without defining it); they're
// designed here to support range queries by SCANning with a prefix built
// from whichever [statistic.Description] fields are set, falling back to
// a full-namespace scan when the description is unconstrained.
package kvstore

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/statistic"
	"github.com/janm-dev/links-go/internal/store"
)

func init() {
	store.RegisterDriver("redis", NewBackend)
}

// Config holds the connection parameters for a Redis/Valkey server.
type Config struct {
	Addr        string
	Username    string
	Password    string
	Database    int
	PoolSize    int
	Cluster     bool
	DialTimeout time.Duration
}

// DefaultConfig returns the upstream-documented defaults: pool size 8,
// database 0, a single non-clustered node at localhost:6379.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		Database:    0,
		PoolSize:    8,
		DialTimeout: 5 * time.Second,
	}
}

// NewBackend constructs the redis driver from a `[store.drivers.redis]`
// configuration table.
func NewBackend(config map[string]any) (store.Backend, error) {
	cfg := DefaultConfig()
	if config != nil {
		if v, ok := config["connect"].(string); ok && v != "" {
			cfg.Addr = v
		}
		if v, ok := config["username"].(string); ok {
			cfg.Username = v
		}
		if v, ok := config["password"].(string); ok {
			cfg.Password = v
		}
		if v, ok := toInt(config["database"]); ok {
			cfg.Database = v
		}
		if v, ok := toInt(config["pool_size"]); ok && v > 0 {
			cfg.PoolSize = v
		}
		if v, ok := config["cluster"].(bool); ok {
			cfg.Cluster = v
		}
	}

	return New(cfg)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Backend is the redis/valkey-backed store.Backend.
type Backend struct {
	client valkey.Client
}

// New connects to the configured Redis/Valkey server.
func New(cfg Config) (*Backend, error) {
	opts := valkey.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.Database,
		DisableCache: true,
		Dialer: net.Dialer{
			Timeout: cfg.DialTimeout,
		},
	}
	if cfg.Cluster {
		opts.ShuffleInit = true
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("kvstore: connect: %w", err)
	}

	return &Backend{client: client}, nil
}

// Name returns "redis".
func (b *Backend) Name() string { return "redis" }

// Init pings the server to fail fast on misconfiguration.
func (b *Backend) Init(ctx context.Context) error {
	resp := b.client.Do(ctx, b.client.B().Ping().Build())
	if err := resp.Error(); err != nil {
		return fmt.Errorf("kvstore: ping: %w", err)
	}
	return nil
}

// Close releases the client's connections.
func (b *Backend) Close() error {
	b.client.Close()
	return nil
}

func redirectKey(id linkid.Id) string {
	return "links:redirect:" + id.String()
}

func vanityKey(n normalized.Normalized) string {
	return "links:vanity:" + n.String()
}

func (b *Backend) GetRedirect(ctx context.Context, id linkid.Id) (normalized.Link, bool, error) {
	resp := b.client.Do(ctx, b.client.B().Get().Key(redirectKey(id)).Build())
	s, ok, err := getString(resp)
	if err != nil || !ok {
		return normalized.Link{}, ok, err
	}
	return normalized.NewLinkUnchecked(s), true, nil
}

func (b *Backend) SetRedirect(ctx context.Context, id linkid.Id, link normalized.Link) (normalized.Link, bool, error) {
	old, had, err := b.GetRedirect(ctx, id)
	if err != nil {
		return normalized.Link{}, false, err
	}
	resp := b.client.Do(ctx, b.client.B().Set().Key(redirectKey(id)).Value(link.String()).Build())
	if err := resp.Error(); err != nil {
		return normalized.Link{}, false, fmt.Errorf("kvstore: set redirect: %w", err)
	}
	return old, had, nil
}

func (b *Backend) RemRedirect(ctx context.Context, id linkid.Id) (normalized.Link, bool, error) {
	old, had, err := b.GetRedirect(ctx, id)
	if err != nil || !had {
		return old, had, err
	}
	if err := b.client.Do(ctx, b.client.B().Del().Key(redirectKey(id)).Build()).Error(); err != nil {
		return normalized.Link{}, false, fmt.Errorf("kvstore: del redirect: %w", err)
	}
	return old, true, nil
}

func (b *Backend) GetVanity(ctx context.Context, vanity normalized.Normalized) (linkid.Id, bool, error) {
	resp := b.client.Do(ctx, b.client.B().Get().Key(vanityKey(vanity)).Build())
	s, ok, err := getString(resp)
	if err != nil || !ok {
		return linkid.Id{}, ok, err
	}
	id, err := linkid.Parse(s)
	if err != nil {
		return linkid.Id{}, false, fmt.Errorf("kvstore: stored vanity value %q is not a valid id: %w", s, err)
	}
	return id, true, nil
}

func (b *Backend) SetVanity(ctx context.Context, vanity normalized.Normalized, id linkid.Id) (linkid.Id, bool, error) {
	old, had, err := b.GetVanity(ctx, vanity)
	if err != nil {
		return linkid.Id{}, false, err
	}
	resp := b.client.Do(ctx, b.client.B().Set().Key(vanityKey(vanity)).Value(id.String()).Build())
	if err := resp.Error(); err != nil {
		return linkid.Id{}, false, fmt.Errorf("kvstore: set vanity: %w", err)
	}
	return old, had, nil
}

func (b *Backend) RemVanity(ctx context.Context, vanity normalized.Normalized) (linkid.Id, bool, error) {
	old, had, err := b.GetVanity(ctx, vanity)
	if err != nil || !had {
		return old, had, err
	}
	if err := b.client.Do(ctx, b.client.B().Del().Key(vanityKey(vanity)).Build()).Error(); err != nil {
		return linkid.Id{}, false, fmt.Errorf("kvstore: del vanity: %w", err)
	}
	return old, true, nil
}

func getString(resp valkey.ValkeyResult) (string, bool, error) {
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	b, err := resp.AsBytes()
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

// statField is one "*"-or-literal segment of a stat key.
func statField(s *string) string {
	if s == nil {
		return "*"
	}
	return escapeGlob(*s)
}

func escapeGlob(s string) string {
	r := strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`)
	return r.Replace(s)
}

func statKey(s statistic.Statistic) string {
	return fmt.Sprintf("links:stat:%s:%s:%s:%d", s.Type, s.Link, s.Data, s.Time.Unix())
}

func statPattern(d statistic.Description) string {
	typ := "*"
	if d.Type != nil {
		typ = d.Type.String()
	}
	link := statField(d.Link)
	data := statField(d.Data)
	tm := "*"
	if d.Time != nil {
		tm = strconv.FormatInt(d.Time.Unix(), 10)
	}
	return fmt.Sprintf("links:stat:%s:%s:%s:%s", typ, link, data, tm)
}

func parseStatKey(key string) (statistic.Statistic, bool) {
	parts := strings.SplitN(key, ":", 6)
	if len(parts) != 6 || parts[0] != "links" || parts[1] != "stat" {
		return statistic.Statistic{}, false
	}
	typ, err := statistic.ParseType(parts[2])
	if err != nil {
		return statistic.Statistic{}, false
	}
	unix, err := strconv.ParseInt(parts[5], 10, 64)
	if err != nil {
		return statistic.Statistic{}, false
	}
	return statistic.Statistic{
		Link: parts[3],
		Type: typ,
		Data: parts[4],
		Time: statistic.FromUnix(unix),
	}, true
}

func (b *Backend) IncrStatistic(ctx context.Context, stat statistic.Statistic) (statistic.Value, error) {
	resp := b.client.Do(ctx, b.client.B().Incr().Key(statKey(stat)).Build())
	if err := resp.Error(); err != nil {
		return 0, fmt.Errorf("kvstore: incr statistic: %w", err)
	}
	n, err := resp.AsInt64()
	if err != nil {
		return 0, err
	}
	return statistic.Value(n), nil
}

func (b *Backend) scanMatching(ctx context.Context, desc statistic.Description) ([]string, error) {
	pattern := statPattern(desc)
	var keys []string
	cursor := uint64(0)
	for {
		resp := b.client.Do(ctx, b.client.B().Scan().Cursor(cursor).Match(pattern).Count(256).Build())
		if err := resp.Error(); err != nil {
			return nil, fmt.Errorf("kvstore: scan: %w", err)
		}
		entry, err := resp.AsScanEntry()
		if err != nil {
			return nil, err
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (b *Backend) GetStatistics(ctx context.Context, desc statistic.Description) ([]store.StatEntry, error) {
	keys, err := b.scanMatching(ctx, desc)
	if err != nil {
		return nil, err
	}
	return b.entriesForKeys(ctx, keys, desc)
}

func (b *Backend) RemStatistics(ctx context.Context, desc statistic.Description) ([]store.StatEntry, error) {
	keys, err := b.scanMatching(ctx, desc)
	if err != nil {
		return nil, err
	}
	entries, err := b.entriesForKeys(ctx, keys, desc)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		del := b.client.B().Del().Key(keys...).Build()
		if err := b.client.Do(ctx, del).Error(); err != nil {
			return nil, fmt.Errorf("kvstore: del statistics: %w", err)
		}
	}
	return entries, nil
}

func (b *Backend) entriesForKeys(ctx context.Context, keys []string, desc statistic.Description) ([]store.StatEntry, error) {
	var out []store.StatEntry
	for _, key := range keys {
		stat, ok := parseStatKey(key)
		if !ok || !desc.Matches(stat) {
			continue
		}
		resp := b.client.Do(ctx, b.client.B().Get().Key(key).Build())
		n, err := resp.AsInt64()
		if err != nil {
			continue
		}
		out = append(out, store.StatEntry{Statistic: stat, Value: statistic.Value(n)})
	}
	return out, nil
}

var _ store.Backend = (*Backend)(nil)
