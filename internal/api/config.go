package api

import "time"

const (
	defaultAddr        = ":8080"
	defaultBodyLimit   = 64 * 1024
	defaultIdleTimeout = time.Minute
)

type Config struct {
	Proxy ProxyConfig  `yaml:"proxy"`
	HTTP  ListenConfig `yaml:"http"`
}

// ProxyConfig tells fiber whose forwarded headers to trust.
type ProxyConfig struct {
	Header  string   `yaml:"header"`
	Trusted []string `yaml:"trusted"`
}

type ListenConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// BodyLimit caps request bodies in bytes, booking requests are small.
	BodyLimit int `yaml:"body_limit"`
}

func (c Config) withDefaults() Config {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaultAddr
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = defaultIdleTimeout
	}
	if c.HTTP.BodyLimit <= 0 {
		c.HTTP.BodyLimit = defaultBodyLimit
	}
	return c
}
