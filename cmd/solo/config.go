package main

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ngrok/solo"
	"github.com/pkg/errors"
)

const (
	defaultPort = 24332
	// unminimizeMessage asks the original to bring itself to the front.
	unminimizeMessage = "Unminimize you freak"
	// stepDownMessage asks the original to exit so the duplicate can take
	// over.
	stepDownMessage = "Step down"
)

type runConfig struct {
	Negotiation solo.Config
	// Message is what a duplicate sends to the original, unless it is
	// replacing it.
	Message string
	Replace bool
}

func defaultRunConfig() runConfig {
	return runConfig{
		Negotiation: solo.DefaultConfig(defaultPort),
		Message:     unminimizeMessage,
	}
}

type fileConfig struct {
	Port              int    `toml:"port"`
	Host              string `toml:"host"`
	MaxBindAttempts   int    `toml:"max_bind_attempts"`
	BindRetryDelay    string `toml:"bind_retry_delay"`
	HandoverWaitDelay string `toml:"handover_wait_delay"`
	ReadTimeout       string `toml:"read_timeout"`
	JoinLines         bool   `toml:"join_lines"`
	Message           string `toml:"message"`
	Replace           bool   `toml:"replace"`
}

// loadRunConfig overlays the settings defined in the toml file at path on
// the defaults.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, errors.Wrap(err, "load solo config")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runConfig{}, errors.Errorf("unknown config keys: %v", undecoded)
	}

	neg := &cfg.Negotiation
	if meta.IsDefined("port") {
		neg.Port = raw.Port
	}
	if meta.IsDefined("host") {
		neg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("max_bind_attempts") {
		neg.MaxBindAttempts = raw.MaxBindAttempts
	}
	for _, d := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"bind_retry_delay", raw.BindRetryDelay, &neg.BindRetryDelay},
		{"handover_wait_delay", raw.HandoverWaitDelay, &neg.HandoverWaitDelay},
		{"read_timeout", raw.ReadTimeout, &neg.ReadTimeout},
	} {
		if !meta.IsDefined(d.key) {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return runConfig{}, errors.Wrapf(err, "parse %s", d.key)
		}
		*d.dst = parsed
	}
	if meta.IsDefined("join_lines") {
		neg.JoinLines = raw.JoinLines
	}
	if meta.IsDefined("message") {
		cfg.Message = raw.Message
	}
	if meta.IsDefined("replace") {
		cfg.Replace = raw.Replace
	}

	if err := neg.Validate(); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}
