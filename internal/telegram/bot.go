package telegram

import (
	"context"
	"sync"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
	"github.com/nikmy/roombook/pkg/tools/throttle"
)

const sendQueueSize = 256

type Ledger interface {
	Propose(key string, i interval.Interval, requester string) (ledger.Booking, error)
	Cancel(id string) (ledger.Booking, error)
	Get(id string) (ledger.Booking, error)
	BookingsFor(key string, window interval.Interval) ([]ledger.Booking, error)
	Available(window interval.Interval) ([]string, error)
	Resources() []string
	Catalog() []ledger.ResourceInfo
	All() []ledger.Booking
}

func New(log logger.Logger, conf Config, l Ledger) (*Bot, error) {
	conf = conf.withDefaults()

	tg, err := telebot.NewBot(telebot.Settings{
		Token:   conf.Token,
		Updates: 256,
		Poller: &telebot.LongPoller{
			Timeout: conf.PollInterval,
		},
	})
	if err != nil {
		return nil, errors.WrapFail(err, "create telegram bot")
	}

	b := newBot(log, conf, l, tg)
	b.tg = tg
	b.throttle = throttle.New(conf.SendInterval, sendQueueSize)
	return b, nil
}

func newBot(log logger.Logger, conf Config, l Ledger, sender messageSender) *Bot {
	return &Bot{
		sender:       sender,
		ledger:       l,
		time:         newStdTime(conf.UTCDiff),
		notifyBefore: conf.thresholds(),
		notifyPeriod: conf.NotifyPeriod,
		reminded:     make(map[reminderKey]int),
		log:          log.With("telegram_bot"),
	}
}

type Bot struct {
	tg       *telebot.Bot
	sender   messageSender
	throttle *throttle.Throttler
	ctx      context.Context

	ledger Ledger
	time   timeProvider

	notifyBefore []time.Duration
	notifyPeriod time.Duration

	mu       sync.Mutex
	reminded map[reminderKey]int

	log logger.Logger
}

func (b *Bot) Run(ctx context.Context) error {
	if b.tg == nil {
		return errors.Error("telegram bot is not initialized")
	}

	b.ctx = ctx
	b.setupHandlers()
	go b.throttle.Run(ctx)
	go b.tg.Start()

	if b.notifyPeriod > 0 && len(b.notifyBefore) > 0 {
		go b.watch()
	}
	return nil
}

func (b *Bot) Stop() {
	b.tg.Stop()
}
