package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc reports the value of a named setting and whether it is set.
// os.LookupEnv is the production source.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from environment variables, applies defaults,
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with an explicit settings source. Every malformed or
// missing setting is reported, not just the first.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	l := envLoader{lookup: lookup}
	l.fill(reflect.ValueOf(cfg).Elem(), "")
	if len(l.errs) > 0 {
		return nil, fmt.Errorf("config load: %w", errors.Join(l.errs...))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// envLoader fills tagged struct fields from a LookupFunc.
//
// Tags:
//
//	env      primary variable name
//	envAlt   fallback variable name
//	default  value used when neither variable is set
//	required "true" makes an unset variable an error
//	unit     "bytes" accepts sizes such as 512KB, 50MB, or 1GB
type envLoader struct {
	lookup LookupFunc
	errs   []error
}

func (l *envLoader) fill(v reflect.Value, path string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		name := field.Name
		if path != "" {
			name = path + "." + field.Name
		}

		if field.Type.Kind() == reflect.Struct {
			l.fill(fv, name)
			continue
		}

		key := field.Tag.Get("env")
		if key == "" {
			continue
		}

		raw, ok := l.get(key)
		if !ok {
			if alt := field.Tag.Get("envAlt"); alt != "" {
				raw, ok = l.get(alt)
			}
		}
		if !ok {
			if field.Tag.Get("required") == "true" {
				l.errs = append(l.errs, fmt.Errorf("%s: required environment variable %s is not set", name, key))
				continue
			}
			raw = field.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := assign(fv, raw, field.Tag.Get("unit")); err != nil {
			l.errs = append(l.errs, fmt.Errorf("%s: invalid value for %s=%q: %w", name, key, raw, err))
		}
	}
}

// get treats a blank value as unset.
func (l *envLoader) get(key string) (string, bool) {
	v, ok := l.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

var durationType = reflect.TypeOf(time.Duration(0))

// assign parses raw into the field according to its type.
func assign(fv reflect.Value, raw, unit string) error {
	switch {
	case fv.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))

	case fv.Kind() == reflect.String:
		fv.SetString(raw)

	case fv.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)

	case fv.Kind() == reflect.Int || fv.Kind() == reflect.Int64:
		var (
			n   int64
			err error
		)
		if unit == "bytes" {
			n, err = parseBytes(raw)
		} else {
			n, err = strconv.ParseInt(raw, 10, 64)
		}
		if err != nil {
			return err
		}
		if fv.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, fv.Type())
		}
		fv.SetInt(n)

	case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		fv.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type %s", fv.Type())
	}
	return nil
}

// byteUnits are binary multiples, longest suffix first.
var byteUnits = []struct {
	suffix string
	scale  int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseBytes parses a plain byte count or one with a KB, MB, or GB suffix.
func parseBytes(raw string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	scale := int64(1)
	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			scale = u.scale
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", raw)
	}
	if n > 0 && n > (1<<63-1)/scale {
		return 0, fmt.Errorf("size %q is too large", raw)
	}
	return n * scale, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Server.validate()...)
	errs = append(errs, c.Upload.validate()...)
	errs = append(errs, c.Session.validate()...)
	errs = append(errs, c.Rate.validate()...)
	errs = append(errs, c.Chart.validate()...)
	errs = append(errs, c.Logging.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c ServerConfig) validate() []string {
	var errs []string
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Port))
	}
	if c.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.WriteTimeout < 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return errs
}

func (c UploadConfig) validate() []string {
	var errs []string
	positive := []struct {
		key string
		ok  bool
	}{
		{"UPLOAD_MAX_FILE_SIZE", c.MaxFileSize > 0},
		{"UPLOAD_MAX_FILES", c.MaxFiles > 0},
		{"UPLOAD_MAX_CONCURRENT", c.MaxConcurrent > 0},
		{"UPLOAD_MAX_WAIT_TIME", c.MaxWaitTime > 0},
	}
	for _, p := range positive {
		if !p.ok {
			errs = append(errs, p.key+" must be positive")
		}
	}
	return errs
}

func (c SessionConfig) validate() []string {
	var errs []string
	if c.TTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, "SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.CookieName == "" {
		errs = append(errs, "SESSION_COOKIE_NAME must not be empty")
	}
	return errs
}

func (c RateLimitConfig) validate() []string {
	if !c.Enabled {
		return nil
	}
	var errs []string
	if c.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}
	return errs
}

func (c ChartConfig) validate() []string {
	var errs []string
	if c.Width < 100 || c.Height < 100 {
		errs = append(errs, fmt.Sprintf("CHART_WIDTH and CHART_HEIGHT (%dx%d) must be at least 100", c.Width, c.Height))
	}
	if c.HistogramBins < 0 {
		errs = append(errs, "CHART_HISTOGRAM_BINS must be non-negative")
	}
	return errs
}

func (c LoggingConfig) validate() []string {
	var errs []string
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Level))
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Format))
	}
	return errs
}

// String returns a compact representation of the config for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d}, "+
		"Upload: {MaxFileSize: %d, MaxFiles: %d, MaxConcurrent: %d}, "+
		"Session: {TTL: %s, CookieName: %q}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d, UploadLimit: %d}, "+
		"Security: {TrustedProxies: %d, EnableCSP: %v}, "+
		"Chart: {Width: %d, Height: %d}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Host, c.Server.Port,
		c.Upload.MaxFileSize, c.Upload.MaxFiles, c.Upload.MaxConcurrent,
		c.Session.TTL, c.Session.CookieName,
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.UploadLimit,
		len(c.Security.TrustedProxies), c.Security.EnableCSP,
		c.Chart.Width, c.Chart.Height,
		c.Logging.Level, c.Logging.Format)
}
