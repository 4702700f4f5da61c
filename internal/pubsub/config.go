package pubsub

import "time"

type Config struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Group is the consumer group used by Consumer
	Group string `yaml:"group"`

	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

func (c Config) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}
