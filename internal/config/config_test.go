package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxConcurrent != 4 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 4)
	}
	if cfg.Upload.MaxFileSize != 52428800 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 52428800)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, 2*time.Hour)
	}
	if cfg.Session.CookieName != "dataforge_session" {
		t.Errorf("Session.CookieName = %q, want %q", cfg.Session.CookieName, "dataforge_session")
	}
	if cfg.Rate.RequestsPerMinute != 120 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 120)
	}
	if cfg.Chart.Width != 800 || cfg.Chart.Height != 480 {
		t.Errorf("Chart = %dx%d, want 800x480", cfg.Chart.Width, cfg.Chart.Height)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_MAX_CONCURRENT", "10")
	t.Setenv("SESSION_SECURE_COOKIE", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if !cfg.Session.SecureCookie {
		t.Error("Session.SecureCookie = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}

	// The primary name wins over the fallback.
	t.Setenv("SERVER_PORT", "4000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 4000)
	}
}

func TestEnvLoader_MissingRequired(t *testing.T) {
	var target struct {
		Inner struct {
			Name string `env:"DATAFORGE_TEST_REQUIRED" required:"true"`
		}
	}

	l := envLoader{lookup: mapLookup(map[string]string{"DATAFORGE_TEST_REQUIRED": "  "})}
	l.fill(reflect.ValueOf(&target).Elem(), "")
	if len(l.errs) != 1 {
		t.Fatalf("errs = %v, want one error for the blank required variable", l.errs)
	}
	msg := l.errs[0].Error()
	if !strings.Contains(msg, "DATAFORGE_TEST_REQUIRED") || !strings.Contains(msg, "Inner.Name") {
		t.Errorf("error should name the variable and field: %v", msg)
	}
}

func TestLoadFrom_ReportsEveryBadValue(t *testing.T) {
	_, err := LoadFrom(mapLookup(map[string]string{
		"UPLOAD_MAX_FILES":   "many",
		"SESSION_TTL":        "forever",
		"RATE_LIMIT_ENABLED": "sometimes",
	}))
	if err == nil {
		t.Fatal("LoadFrom() expected error")
	}
	for _, want := range []string{"UPLOAD_MAX_FILES", "SESSION_TTL", "RATE_LIMIT_ENABLED"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestLoadFrom_ByteSize(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(map[string]string{"UPLOAD_MAX_FILE_SIZE": "2mb"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Upload.MaxFileSize != 2<<20 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 2<<20)
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "1024", want: 1024},
		{in: "512KB", want: 512 << 10},
		{in: "50 MB", want: 50 << 20},
		{in: "1gb", want: 1 << 30},
		{in: "7B", want: 7},
		{in: "1.5MB", wantErr: true},
		{in: "MB", wantErr: true},
		{in: "9999999999GB", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseBytes(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseBytes(%q) = %d, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseBytes(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("UPLOAD_MAX_FILES", "many")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for non-numeric UPLOAD_MAX_FILES")
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("UPLOAD_MAX_WAIT_TIME", "1m30s")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, 30*time.Minute)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Upload:  UploadConfig{MaxFileSize: 1, MaxFiles: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Session: SessionConfig{TTL: time.Hour, SweepInterval: time.Minute, CookieName: "sid"},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Chart:   ChartConfig{Width: 800, Height: 480},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantVar string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"zero file size", func(c *Config) { c.Upload.MaxFileSize = 0 }, "UPLOAD_MAX_FILE_SIZE"},
		{"zero max files", func(c *Config) { c.Upload.MaxFiles = 0 }, "UPLOAD_MAX_FILES"},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }, "SESSION_TTL"},
		{"empty cookie name", func(c *Config) { c.Session.CookieName = "" }, "SESSION_COOKIE_NAME"},
		{"rate limit without budget", func(c *Config) { c.Rate.RequestsPerMinute = 0 }, "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"rate limit disabled", func(c *Config) { c.Rate = RateLimitConfig{} }, ""},
		{"tiny chart", func(c *Config) { c.Chart.Width = 10 }, "CHART_WIDTH"},
		{"negative bins", func(c *Config) { c.Chart.HistogramBins = -1 }, "CHART_HISTOGRAM_BINS"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantVar == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantVar)
			}
			if !strings.Contains(err.Error(), tt.wantVar) {
				t.Errorf("error should mention %s: %v", tt.wantVar, err)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestUploadMaxRequestSize(t *testing.T) {
	cfg := &UploadConfig{MaxFileSize: 1000, MaxFiles: 3}
	if got, want := cfg.MaxRequestSize(), int64(3000+1<<20); got != want {
		t.Errorf("MaxRequestSize() = %d, want %d", got, want)
	}
}

func TestConfigString(t *testing.T) {
	cfg := validConfig()
	str := cfg.String()
	for _, want := range []string{"Port: 8080", `CookieName: "sid"`, "Width: 800"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %q, missing %q", str, want)
		}
	}
}
