package telegram

import (
	"slices"
	"time"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultSendInterval = 50 * time.Millisecond
)

// Config of the bot. UTCDiff is the zone offset used to read and print
// slots. Reminders are sent NotifyBefore a booking starts, checked every
// NotifyPeriod; zero NotifyPeriod turns them off.
type Config struct {
	Token        string        `yaml:"token"`
	PollInterval time.Duration `yaml:"pollInterval"`
	UTCDiff      time.Duration `yaml:"utcDiff"`
	SendInterval time.Duration `yaml:"sendInterval"`

	NotifyBefore []time.Duration `yaml:"notifyBefore"`
	NotifyPeriod time.Duration   `yaml:"notifyPeriod"`
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.SendInterval <= 0 {
		c.SendInterval = defaultSendInterval
	}
	return c
}

// thresholds returns positive NotifyBefore values, ascending and unique.
func (c Config) thresholds() []time.Duration {
	out := slices.DeleteFunc(slices.Clone(c.NotifyBefore), func(d time.Duration) bool { return d <= 0 })
	slices.Sort(out)
	return slices.Compact(out)
}
