package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoaderOptions controls how configuration is loaded (SPEC_FULL.md §4.10,
// "layered load"). Every layer is best-effort: a malformed environment
// variable or config file is logged and skipped rather than treated as
// fatal, so a typo in one layer never prevents the others from applying.
type LoaderOptions struct {
	// ConfigPath is the path to a TOML, YAML, or JSON config file,
	// determined by its extension. Empty means no config file layer.
	ConfigPath string

	// FlagOverrides are CLI flag values, the highest-precedence layer.
	FlagOverrides FlagOverrides

	// Logger receives warnings about skipped layers. slog.Default() if nil.
	Logger *slog.Logger
}

// FlagOverrides holds CLI flag values (`--<option-kebab-case> VALUE`).
// Compound options carry a JSON literal, matching the environment variable
// encoding (SPEC_FULL.md §6). A nil pointer means the flag was not given.
type FlagOverrides struct {
	LogLevel           *string
	Token              *string
	Listeners          *string // JSON array of listener-address strings
	Statistics         *string // JSON array of category names
	DefaultCertificate *string // JSON object
	Certificates       *string // JSON array of objects
	HSTS               *string
	HSTSMaxAge         *string
	HTTPSRedirect      *string // "true"/"false"
	SendAltSvc         *string
	SendServer         *string
	SendCSP            *string
	Store              *string
	StoreConfig        *string // JSON object of string->string
}

// fileConfig mirrors Config with pointer/nil-able fields, so a load layer
// can distinguish "option absent from this layer" from "option set to its
// zero value".
type fileConfig struct {
	LogLevel           *string      `toml:"log_level" mapstructure:"log_level"`
	Token              *string      `toml:"token" mapstructure:"token"`
	Listeners          []string     `toml:"listeners" mapstructure:"listeners"`
	Statistics         []string     `toml:"statistics" mapstructure:"statistics"`
	DefaultCertificate *CertSource  `toml:"default_certificate" mapstructure:"default_certificate"`
	Certificates       []CertSource `toml:"certificates" mapstructure:"certificates"`
	HSTS               *string      `toml:"hsts" mapstructure:"hsts"`
	HSTSMaxAge         *int         `toml:"hsts_max_age" mapstructure:"hsts_max_age"`
	HTTPSRedirect      *bool        `toml:"https_redirect" mapstructure:"https_redirect"`
	SendAltSvc         *bool        `toml:"send_alt_svc" mapstructure:"send_alt_svc"`
	SendServer         *bool        `toml:"send_server" mapstructure:"send_server"`
	SendCSP            *bool        `toml:"send_csp" mapstructure:"send_csp"`
	Store              *string      `toml:"store" mapstructure:"store"`
	StoreConfig        map[string]string `toml:"store_config" mapstructure:"store_config"`
}

// envPrefix is the prefix for scalar and JSON-encoded compound environment
// variables (SPEC_FULL.md §6: `LINKS_<OPTION>`).
const envPrefix = "LINKS_"

// Load builds a Config from, in increasing precedence: hard-coded defaults,
// environment variables, an optional config file, and CLI flag overrides.
func Load(opts LoaderOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := DefaultConfig()

	overlayEnv(cfg, logger)

	if opts.ConfigPath != "" {
		fc, err := readConfigFile(opts.ConfigPath)
		if err != nil {
			logger.Warn("skipping unreadable or malformed config file", "path", opts.ConfigPath, "error", err)
		} else {
			overlayFileConfig(cfg, fc)
		}
	}

	overlayFlags(cfg, opts.FlagOverrides, logger)

	if err := cfg.ParseCompoundFields(); err != nil {
		return nil, err
	}

	if err := validateEnums(cfg); err != nil {
		return nil, err
	}

	if err := validateCertificates(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readConfigFile decodes a TOML, YAML, or JSON config file, chosen by its
// extension, into a fileConfig.
func readConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml", "":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		var generic map[string]any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if err := mapstructure.Decode(generic, &fc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".json":
		var generic map[string]any
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		if err := mapstructure.Decode(generic, &fc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unrecognized config file extension %q", ext)
	}

	return &fc, nil
}

// overlayFileConfig applies every present field of fc onto cfg.
func overlayFileConfig(cfg *Config, fc *fileConfig) {
	if fc.LogLevel != nil {
		cfg.LogLevel = LogLevel(*fc.LogLevel)
	}
	if fc.Token != nil {
		cfg.Token = *fc.Token
	}
	if fc.Listeners != nil {
		cfg.ListenersRaw = fc.Listeners
	}
	if fc.Statistics != nil {
		cfg.StatisticsRaw = fc.Statistics
	}
	if fc.DefaultCertificate != nil {
		cfg.DefaultCertificate = fc.DefaultCertificate
	}
	if fc.Certificates != nil {
		cfg.Certificates = fc.Certificates
	}
	if fc.HSTS != nil {
		cfg.HSTS = HSTSPolicy(*fc.HSTS)
	}
	if fc.HSTSMaxAge != nil {
		cfg.HSTSMaxAge = *fc.HSTSMaxAge
	}
	if fc.HTTPSRedirect != nil {
		cfg.HTTPSRedirect = *fc.HTTPSRedirect
	}
	if fc.SendAltSvc != nil {
		cfg.SendAltSvc = *fc.SendAltSvc
	}
	if fc.SendServer != nil {
		cfg.SendServer = *fc.SendServer
	}
	if fc.SendCSP != nil {
		cfg.SendCSP = *fc.SendCSP
	}
	if fc.Store != nil {
		cfg.Store = *fc.Store
	}
	if fc.StoreConfig != nil {
		cfg.StoreConfig = fc.StoreConfig
	}
}

// overlayEnv applies `LINKS_<OPTION>` environment variables. Scalar options
// are read verbatim; compound options are JSON-decoded. A malformed
// variable is logged and left at its prior value.
func overlayEnv(cfg *Config, logger *slog.Logger) {
	if v, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = LogLevel(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "TOKEN"); ok {
		cfg.Token = v
	}
	if v, ok := os.LookupEnv(envPrefix + "LISTENERS"); ok {
		var list []string
		if err := json.Unmarshal([]byte(v), &list); err != nil {
			logger.Warn("skipping malformed LINKS_LISTENERS", "error", err)
		} else {
			cfg.ListenersRaw = list
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "STATISTICS"); ok {
		var list []string
		if err := json.Unmarshal([]byte(v), &list); err != nil {
			logger.Warn("skipping malformed LINKS_STATISTICS", "error", err)
		} else {
			cfg.StatisticsRaw = list
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "DEFAULT_CERTIFICATE"); ok {
		var cs CertSource
		if err := json.Unmarshal([]byte(v), &cs); err != nil {
			logger.Warn("skipping malformed LINKS_DEFAULT_CERTIFICATE", "error", err)
		} else {
			cfg.DefaultCertificate = &cs
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "CERTIFICATES"); ok {
		var list []CertSource
		if err := json.Unmarshal([]byte(v), &list); err != nil {
			logger.Warn("skipping malformed LINKS_CERTIFICATES", "error", err)
		} else {
			cfg.Certificates = list
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "HSTS"); ok {
		cfg.HSTS = HSTSPolicy(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "HSTS_MAX_AGE"); ok {
		if n, err := strconv.Atoi(v); err != nil {
			logger.Warn("skipping malformed LINKS_HSTS_MAX_AGE", "error", err)
		} else {
			cfg.HSTSMaxAge = n
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "HTTPS_REDIRECT"); ok {
		setBoolEnv(&cfg.HTTPSRedirect, envPrefix+"HTTPS_REDIRECT", v, logger)
	}
	if v, ok := os.LookupEnv(envPrefix + "SEND_ALT_SVC"); ok {
		setBoolEnv(&cfg.SendAltSvc, envPrefix+"SEND_ALT_SVC", v, logger)
	}
	if v, ok := os.LookupEnv(envPrefix + "SEND_SERVER"); ok {
		setBoolEnv(&cfg.SendServer, envPrefix+"SEND_SERVER", v, logger)
	}
	if v, ok := os.LookupEnv(envPrefix + "SEND_CSP"); ok {
		setBoolEnv(&cfg.SendCSP, envPrefix+"SEND_CSP", v, logger)
	}
	if v, ok := os.LookupEnv(envPrefix + "STORE"); ok {
		cfg.Store = v
	}
	if v, ok := os.LookupEnv(envPrefix + "STORE_CONFIG"); ok {
		m := map[string]string{}
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			logger.Warn("skipping malformed LINKS_STORE_CONFIG", "error", err)
		} else {
			cfg.StoreConfig = m
		}
	}
}

func setBoolEnv(dst *bool, name, v string, logger *slog.Logger) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("skipping malformed boolean env var", "name", name, "error", err)
		return
	}
	*dst = b
}

// overlayFlags applies CLI flag overrides, the highest-precedence layer.
func overlayFlags(cfg *Config, f FlagOverrides, logger *slog.Logger) {
	if f.LogLevel != nil {
		cfg.LogLevel = LogLevel(*f.LogLevel)
	}
	if f.Token != nil {
		cfg.Token = *f.Token
	}
	if f.Listeners != nil {
		var list []string
		if err := json.Unmarshal([]byte(*f.Listeners), &list); err != nil {
			logger.Warn("skipping malformed --listeners flag", "error", err)
		} else {
			cfg.ListenersRaw = list
		}
	}
	if f.Statistics != nil {
		var list []string
		if err := json.Unmarshal([]byte(*f.Statistics), &list); err != nil {
			logger.Warn("skipping malformed --statistics flag", "error", err)
		} else {
			cfg.StatisticsRaw = list
		}
	}
	if f.DefaultCertificate != nil {
		var cs CertSource
		if err := json.Unmarshal([]byte(*f.DefaultCertificate), &cs); err != nil {
			logger.Warn("skipping malformed --default-certificate flag", "error", err)
		} else {
			cfg.DefaultCertificate = &cs
		}
	}
	if f.Certificates != nil {
		var list []CertSource
		if err := json.Unmarshal([]byte(*f.Certificates), &list); err != nil {
			logger.Warn("skipping malformed --certificates flag", "error", err)
		} else {
			cfg.Certificates = list
		}
	}
	if f.HSTS != nil {
		cfg.HSTS = HSTSPolicy(*f.HSTS)
	}
	if f.HSTSMaxAge != nil {
		if n, err := strconv.Atoi(*f.HSTSMaxAge); err != nil {
			logger.Warn("skipping malformed --hsts-max-age flag", "error", err)
		} else {
			cfg.HSTSMaxAge = n
		}
	}
	if f.HTTPSRedirect != nil {
		setBoolFlag(&cfg.HTTPSRedirect, "--https-redirect", *f.HTTPSRedirect, logger)
	}
	if f.SendAltSvc != nil {
		setBoolFlag(&cfg.SendAltSvc, "--send-alt-svc", *f.SendAltSvc, logger)
	}
	if f.SendServer != nil {
		setBoolFlag(&cfg.SendServer, "--send-server", *f.SendServer, logger)
	}
	if f.SendCSP != nil {
		setBoolFlag(&cfg.SendCSP, "--send-csp", *f.SendCSP, logger)
	}
	if f.Store != nil {
		cfg.Store = *f.Store
	}
	if f.StoreConfig != nil {
		m := map[string]string{}
		if err := json.Unmarshal([]byte(*f.StoreConfig), &m); err != nil {
			logger.Warn("skipping malformed --store-config flag", "error", err)
		} else {
			cfg.StoreConfig = m
		}
	}
}

func setBoolFlag(dst *bool, name, v string, logger *slog.Logger) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("skipping malformed boolean flag", "name", name, "error", err)
		return
	}
	*dst = b
}

// validateEnums fails fast on option values outside their closed sets.
func validateEnums(cfg *Config) error {
	if !cfg.LogLevel.valid() {
		return fmt.Errorf("config: invalid log_level %q", cfg.LogLevel)
	}
	if !cfg.HSTS.valid() {
		return fmt.Errorf("config: invalid hsts %q", cfg.HSTS)
	}
	if cfg.Store == "" {
		return fmt.Errorf("config: store must not be empty")
	}
	return nil
}

// validateCertificates checks that every configured certificate source is
// well-formed (SPEC_FULL.md §6: currently only the "files" source type).
func validateCertificates(cfg *Config) error {
	if cfg.DefaultCertificate != nil {
		if err := cfg.DefaultCertificate.validate(); err != nil {
			return fmt.Errorf("config: default_certificate: %w", err)
		}
	}
	for i, cs := range cfg.Certificates {
		if err := cs.validate(); err != nil {
			return fmt.Errorf("config: certificates[%d]: %w", i, err)
		}
	}
	return nil
}
