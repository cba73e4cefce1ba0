package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

// DevSecret signs session cookies when nothing else is configured.
// It is public; release deployments set SAMEROW_SECRET.
const DevSecret = "samerow-dev-secret"

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	Secret          string        `mapstructure:"secret"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	Backpressure    string        `mapstructure:"backpressure"`
	LeaveScope      string        `mapstructure:"leave_scope"`
	EvictEmptyRooms bool          `mapstructure:"evict_empty_rooms"`
	RateLimit       int           `mapstructure:"rate_limit"`
	RateWindow      time.Duration `mapstructure:"rate_window"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ICEServers      []ICEServer   `mapstructure:"ice_servers"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"port":      "port",
	"log-level": "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("secret", DevSecret)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("backpressure", "drop")
	v.SetDefault("leave_scope", "room")
	v.SetDefault("evict_empty_rooms", false)
	v.SetDefault("rate_limit", 50)
	v.SetDefault("rate_window", "1s")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}

// Load reads config/config.<env>.yaml, then SAMEROW_* env vars, then flags.
// A missing file is not an error. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("SAMEROW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("CONFIG_ENV")
	if flags != nil {
		if f := flags.Lookup("env"); f != nil && f.Changed {
			env = f.Value.String()
		}
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	if _, err := os.Stat(fileName); errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		v.SetConfigFile(fileName)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", fileName, err)
		}
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == "release" && cfg.UsesDevSecret() {
		log.Warn().Str("module", "config").Msg("release mode with the built-in cookie secret, set SAMEROW_SECRET")
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("backpressure", cfg.Backpressure).Str("leave_scope", cfg.LeaveScope).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	switch c.Mode {
	case "release", "debug", "test":
	default:
		bad("mode %q", c.Mode)
	}
	if c.Port <= 0 || c.Port > 65535 {
		bad("port %d", c.Port)
	}
	if c.Secret == "" {
		bad("secret is empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		bad("log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		bad("log_format %q", c.LogFormat)
	}
	if c.ReadLimit <= 0 {
		bad("read_limit %d", c.ReadLimit)
	}
	if c.PingPeriod <= 0 {
		bad("ping_period %s", c.PingPeriod)
	}
	if c.WriteWait <= 0 {
		bad("write_wait %s", c.WriteWait)
	}
	if c.SendBuffer <= 0 {
		bad("send_buffer %d", c.SendBuffer)
	}
	switch c.Backpressure {
	case "drop", "kick":
	default:
		bad("backpressure %q", c.Backpressure)
	}
	switch c.LeaveScope {
	case "room", "global":
	default:
		bad("leave_scope %q", c.LeaveScope)
	}
	if c.RateLimit < 0 {
		bad("rate_limit %d", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateWindow <= 0 {
		bad("rate_window %s", c.RateWindow)
	}
	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.Contains(o, "://") {
			bad("allowed origin %q needs a scheme", o)
		}
	}
	for _, s := range c.ICEServers {
		if len(s.URLs) == 0 {
			bad("ice server without urls")
		}
		for _, u := range s.URLs {
			if _, err := stun.ParseURI(u); err != nil {
				bad("ice url %q: %v", u, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Config) UsesDevSecret() bool {
	return c.Secret == DevSecret
}

// PongWait is how long the server waits for a pong before dropping the socket.
func (c *Config) PongWait() time.Duration {
	return c.PingPeriod * 10 / 9
}

// WebRTCICEServers converts the configured servers into the shape browsers and pion clients expect.
func (c *Config) WebRTCICEServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for _, s := range c.ICEServers {
		ice := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			ice.Credential = s.Credential
			ice.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, ice)
	}
	return out
}
