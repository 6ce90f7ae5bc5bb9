// Package config provides configuration loading, validation, and the
// reloadable [Config] type.
package config

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"

	"github.com/janm-dev/links-go/internal/statistic"
)

// LogLevel is the minimum severity of log records emitted.
type LogLevel string

const (
	LogTrace   LogLevel = "trace"
	LogDebug   LogLevel = "debug"
	LogVerbose LogLevel = "verbose"
	LogInfo    LogLevel = "info"
	LogWarn    LogLevel = "warn"
	LogError   LogLevel = "error"
)

var logLevels = []LogLevel{LogTrace, LogDebug, LogVerbose, LogInfo, LogWarn, LogError}

func (l LogLevel) valid() bool {
	for _, v := range logLevels {
		if l == v {
			return true
		}
	}
	return false
}

// HSTSPolicy controls whether and how Strict-Transport-Security headers
// are sent by the redirector handler.
type HSTSPolicy string

const (
	HSTSDisable           HSTSPolicy = "disable"
	HSTSEnable            HSTSPolicy = "enable"
	HSTSIncludeSubDomains HSTSPolicy = "includeSubDomains"
	HSTSPreload           HSTSPolicy = "preload"
)

var hstsPolicies = []HSTSPolicy{HSTSDisable, HSTSEnable, HSTSIncludeSubDomains, HSTSPreload}

func (h HSTSPolicy) valid() bool {
	for _, v := range hstsPolicies {
		if h == v {
			return true
		}
	}
	return false
}

// defaultListenerPorts maps each listener protocol to its default port,
// substituted when the address string omits one.
var defaultListenerPorts = map[string]int{
	"http":  80,
	"https": 443,
	"grpc":  50051,
	"grpcs": 530,
}

// ListenerAddress is a parsed `protocol:address:port` listener specifier
// (SPEC_FULL.md §6). Two addresses are Equal if protocol and address match
// and their effective ports (after default substitution) match.
type ListenerAddress struct {
	Protocol string
	Address  string
	Port     int // 0 means "use the protocol default"
}

// ParseListenerAddress parses a `protocol:address:port` string. Address may
// be an IPv4 dotted quad, a bracketed IPv6 literal, or empty (meaning any).
func ParseListenerAddress(s string) (ListenerAddress, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return ListenerAddress{}, fmt.Errorf("config: invalid listener address %q: missing protocol", s)
	}
	proto := strings.ToLower(parts[0])
	if _, ok := defaultListenerPorts[proto]; !ok {
		return ListenerAddress{}, fmt.Errorf("config: invalid listener address %q: unknown protocol %q", s, proto)
	}

	rest := parts[1]

	// The remainder is address:port, but a bracketed IPv6 address may itself
	// contain colons, so split from the right on the last top-level colon.
	addr, port := splitAddrPort(rest)

	p := 0
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 0 || n > 65535 {
			return ListenerAddress{}, fmt.Errorf("config: invalid listener address %q: bad port %q", s, port)
		}
		p = n
	}

	return ListenerAddress{Protocol: proto, Address: addr, Port: p}, nil
}

// splitAddrPort splits "addr:port" into its parts, respecting a bracketed
// IPv6 literal ("[::1]:80" -> "[::1]", "80").
func splitAddrPort(s string) (addr, port string) {
	if strings.HasPrefix(s, "[") {
		if end := strings.Index(s, "]"); end != -1 {
			addr = s[:end+1]
			rem := s[end+1:]
			rem = strings.TrimPrefix(rem, ":")
			return addr, rem
		}
	}
	if i := strings.LastIndex(s, ":"); i != -1 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// EffectivePort returns Port, or the protocol's default port if Port is 0.
func (a ListenerAddress) EffectivePort() int {
	if a.Port != 0 {
		return a.Port
	}
	return defaultListenerPorts[a.Protocol]
}

// Equal reports whether a and b name the same listening socket.
func (a ListenerAddress) Equal(b ListenerAddress) bool {
	return a.Protocol == b.Protocol && a.Address == b.Address && a.EffectivePort() == b.EffectivePort()
}

// String renders a in `protocol:address:port` form, omitting the port when
// it equals the protocol default.
func (a ListenerAddress) String() string {
	if a.Port == 0 {
		return fmt.Sprintf("%s:%s:", a.Protocol, a.Address)
	}
	return fmt.Sprintf("%s:%s:%d", a.Protocol, a.Address, a.Port)
}

// CertSource describes where a [Map]-indexed certificate's key material
// comes from. Currently one variant exists ("files"); the struct is shaped
// to admit future source-type fields without breaking existing config.
type CertSource struct {
	Source  string   `toml:"source" mapstructure:"source" json:"source" yaml:"source"`
	Domains []string `toml:"domains" mapstructure:"domains" json:"domains" yaml:"domains"`
	Cert    string   `toml:"cert" mapstructure:"cert" json:"cert" yaml:"cert"`
	Key     string   `toml:"key" mapstructure:"key" json:"key" yaml:"key"`
}

func (c CertSource) validate() error {
	if c.Source != "files" {
		return fmt.Errorf("config: unsupported certificate source %q", c.Source)
	}
	if len(c.Domains) == 0 {
		return fmt.Errorf("config: certificate source has no domains")
	}
	if c.Cert == "" || c.Key == "" {
		return fmt.Errorf("config: certificate source for %v is missing cert or key path", c.Domains)
	}
	return nil
}

// Config holds the complete, reloadable server configuration (SPEC_FULL.md
// §6, "Config file formats"). A fresh Config is produced by [Load] each time
// the supervisor reloads; request handlers read the current Config through
// a derived, lightweight [RedirectorConfig].
type Config struct {
	LogLevel LogLevel `toml:"log_level" mapstructure:"log_level" json:"log_level" yaml:"log_level"`

	// Token authenticates RPC calls: the `auth` metadata value must compare
	// equal to this string.
	Token string `toml:"token" mapstructure:"token" json:"token" yaml:"token"`

	Listeners []ListenerAddress `toml:"-" mapstructure:"-" json:"-" yaml:"-"`

	Statistics []statistic.Category `toml:"-" mapstructure:"-" json:"-" yaml:"-"`

	DefaultCertificate *CertSource  `toml:"default_certificate" mapstructure:"default_certificate" json:"default_certificate" yaml:"default_certificate"`
	Certificates       []CertSource `toml:"certificates" mapstructure:"certificates" json:"certificates" yaml:"certificates"`

	HSTS         HSTSPolicy `toml:"hsts" mapstructure:"hsts" json:"hsts" yaml:"hsts"`
	HSTSMaxAge   int        `toml:"hsts_max_age" mapstructure:"hsts_max_age" json:"hsts_max_age" yaml:"hsts_max_age"`
	HTTPSRedirect bool      `toml:"https_redirect" mapstructure:"https_redirect" json:"https_redirect" yaml:"https_redirect"`
	SendAltSvc   bool       `toml:"send_alt_svc" mapstructure:"send_alt_svc" json:"send_alt_svc" yaml:"send_alt_svc"`
	SendServer   bool       `toml:"send_server" mapstructure:"send_server" json:"send_server" yaml:"send_server"`
	SendCSP      bool       `toml:"send_csp" mapstructure:"send_csp" json:"send_csp" yaml:"send_csp"`

	Store       string            `toml:"store" mapstructure:"store" json:"store" yaml:"store"`
	StoreConfig map[string]string `toml:"store_config" mapstructure:"store_config" json:"store_config" yaml:"store_config"`

	// ListenersRaw and StatisticsRaw carry the string forms of Listeners and
	// Statistics so format-specific decoders (TOML array-of-strings, a JSON
	// array, ...) have somewhere to land before ParseCompoundFields converts
	// them into the typed fields above.
	ListenersRaw  []string `toml:"listeners" mapstructure:"listeners" json:"listeners" yaml:"listeners"`
	StatisticsRaw []string `toml:"statistics" mapstructure:"statistics" json:"statistics" yaml:"statistics"`
}

// DefaultConfig returns the upstream-documented defaults (SPEC_FULL.md §6):
// info logging, a random token, the four standard listeners, the redirect
// and basic and protocol statistic categories, HSTS enabled at two years,
// and the in-memory store.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      LogInfo,
		Token:         randomToken(),
		ListenersRaw:  []string{"http::", "https::", "grpc:[::1]:", "grpcs::"},
		StatisticsRaw: []string{"redirect", "basic", "protocol"},
		HSTS:          HSTSEnable,
		HSTSMaxAge:    63072000,
		HTTPSRedirect: false,
		SendAltSvc:    false,
		SendServer:    true,
		SendCSP:       true,
		Store:         "memory",
		StoreConfig:   map[string]string{},
	}
}

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomToken generates a random 32-character alphanumeric string, the
// default RPC auth token when none is configured.
func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is a fatal platform problem; a zero-valued
		// token is deliberately unusable rather than silently insecure.
		return ""
	}
	for i := range b {
		b[i] = tokenAlphabet[int(b[i])%len(tokenAlphabet)]
	}
	return string(b)
}

// ParseCompoundFields parses ListenersRaw and StatisticsRaw into Listeners
// and Statistics. Called once after all layers (defaults, env, file, flags)
// have been overlaid, since compound fields are replaced wholesale by
// whichever layer sets them rather than merged field-by-field.
func (c *Config) ParseCompoundFields() error {
	listeners := make([]ListenerAddress, 0, len(c.ListenersRaw))
	for _, s := range c.ListenersRaw {
		la, err := ParseListenerAddress(s)
		if err != nil {
			return err
		}
		listeners = append(listeners, la)
	}
	c.Listeners = listeners

	cats := make([]statistic.Category, 0, len(c.StatisticsRaw))
	for _, s := range c.StatisticsRaw {
		cat, err := statistic.ParseCategory(s)
		if err != nil {
			return fmt.Errorf("config: statistics: %w", err)
		}
		cats = append(cats, cat)
	}
	c.Statistics = cats

	return nil
}

// RedirectorConfig is the small, per-request slice of [Config] the
// redirector handler needs: HSTS policy, Alt-Svc/Server/CSP toggles, and the
// enabled statistic categories (SPEC_FULL.md §4.10).
type RedirectorConfig struct {
	HSTS          HSTSPolicy
	HSTSMaxAge    int
	HTTPSRedirect bool
	SendAltSvc    bool
	SendServer    bool
	SendCSP       bool
	Statistics    []statistic.Category
}

// Redirector derives a [RedirectorConfig] snapshot from c.
func (c *Config) Redirector() RedirectorConfig {
	stats := make([]statistic.Category, len(c.Statistics))
	copy(stats, c.Statistics)
	return RedirectorConfig{
		HSTS:          c.HSTS,
		HSTSMaxAge:    c.HSTSMaxAge,
		HTTPSRedirect: c.HTTPSRedirect,
		SendAltSvc:    c.SendAltSvc,
		SendServer:    c.SendServer,
		SendCSP:       c.SendCSP,
		Statistics:    stats,
	}
}

// Redacted returns a string representation of c with the RPC auth token
// redacted.
func (c *Config) Redacted() string {
	var sb strings.Builder
	sb.WriteString("Config{\n")
	sb.WriteString(fmt.Sprintf("  LogLevel: %q,\n", c.LogLevel))
	sb.WriteString("  Token: [REDACTED],\n")
	sb.WriteString(fmt.Sprintf("  Listeners: %v,\n", c.ListenersRaw))
	sb.WriteString(fmt.Sprintf("  Statistics: %v,\n", c.StatisticsRaw))
	sb.WriteString(fmt.Sprintf("  DefaultCertificate: %v,\n", c.DefaultCertificate))
	sb.WriteString(fmt.Sprintf("  CertificatesCount: %d,\n", len(c.Certificates)))
	sb.WriteString(fmt.Sprintf("  HSTS: %q,\n", c.HSTS))
	sb.WriteString(fmt.Sprintf("  HSTSMaxAge: %d,\n", c.HSTSMaxAge))
	sb.WriteString(fmt.Sprintf("  HTTPSRedirect: %v,\n", c.HTTPSRedirect))
	sb.WriteString(fmt.Sprintf("  SendAltSvc: %v,\n", c.SendAltSvc))
	sb.WriteString(fmt.Sprintf("  SendServer: %v,\n", c.SendServer))
	sb.WriteString(fmt.Sprintf("  SendCSP: %v,\n", c.SendCSP))
	sb.WriteString(fmt.Sprintf("  Store: %q,\n", c.Store))
	sb.WriteString(fmt.Sprintf("  StoreConfigKeys: %d,\n", len(c.StoreConfig)))
	sb.WriteString("}")
	return sb.String()
}
