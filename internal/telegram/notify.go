package telegram

import (
	"fmt"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
)

func (b *Bot) notify(chatID int64, msg string) error {
	_, err := b.sender.Send(telebot.ChatID(chatID), msg, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	return err
}

// deliver runs send through the throttler once the bot is running,
// telegram rejects bursts of outgoing messages.
func (b *Bot) deliver(send func()) {
	if b.throttle == nil || b.ctx == nil {
		send()
		return
	}

	if !b.throttle.Do(b.ctx, send) {
		b.log.Warn(errors.Error("bot is stopping, message dropped"))
	}
}

// OnEvent tells bot users about changes of their bookings made elsewhere.
func (b *Bot) OnEvent(e ledger.Event) {
	chatID, ok := chatOf(e.Booking.Requester)
	if !ok {
		return
	}

	loc := b.time.Location()

	var msg string
	switch e.Kind {
	case ledger.EventCancelled:
		msg = fmt.Sprintf("Бронь `%s` на %s (%s) отменена", e.Booking.ID, e.Booking.Resource, formatSlot(e.Booking.Interval, loc))
	case ledger.EventRescheduled:
		msg = fmt.Sprintf("Бронь `%s` перенесена: %s: %s", e.Booking.ID, e.Booking.Resource, formatSlot(e.Booking.Interval, loc))
	default:
		return
	}

	b.deliver(func() {
		err := b.notify(chatID, msg)
		if err != nil {
			b.log.Error(errors.WrapFailf(err, "notify %d about %s booking", chatID, e.Kind))
		}
	})
}

func (b *Bot) watch() {
	tick := time.NewTicker(b.notifyPeriod)
	defer tick.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-tick.C:
			b.sendReminders(b.time.Now())
		}
	}
}

type reminderKey struct {
	id    string
	start int64
}

type reminder struct {
	ChatID  int64
	Booking ledger.Booking
	Left    time.Duration

	key       reminderKey
	threshold int
}

// dueReminders picks bookings whose start has come closer than one of
// notifyBefore since the last reminder. Each threshold fires once per
// booking start, only the tightest crossed threshold is reported.
func (b *Bot) dueReminders(now time.Time, bookings []ledger.Booking) []reminder {
	b.mu.Lock()
	defer b.mu.Unlock()

	alive := make(map[reminderKey]struct{}, len(bookings))
	var due []reminder

	for _, booking := range bookings {
		chatID, ok := chatOf(booking.Requester)
		if !ok {
			continue
		}

		left := booking.Interval.StartTime().Sub(now)
		if left <= 0 {
			continue
		}

		key := reminderKey{id: booking.ID, start: booking.Interval.Start()}
		alive[key] = struct{}{}

		threshold := -1
		for i, before := range b.notifyBefore {
			if left <= before {
				threshold = i
				break
			}
		}
		if threshold < 0 {
			continue
		}

		last, sent := b.reminded[key]
		if sent && last <= threshold {
			continue
		}

		due = append(due, reminder{
			ChatID:    chatID,
			Booking:   booking,
			Left:      left,
			key:       key,
			threshold: threshold,
		})
	}

	for key := range b.reminded {
		if _, ok := alive[key]; !ok {
			delete(b.reminded, key)
		}
	}

	return due
}

func (b *Bot) markReminded(r reminder) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reminded[r.key] = r.threshold
}

func (b *Bot) unmarkReminded(r reminder) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.reminded, r.key)
}

// sendReminders marks reminders before delivery so a slow queue does not
// produce duplicates, failed ones are retried on the next tick.
func (b *Bot) sendReminders(now time.Time) {
	for _, r := range b.dueReminders(now, b.ledger.All()) {
		msg := fmt.Sprintf(
			"До брони `%s` на %s осталось %s",
			r.Booking.ID, r.Booking.Resource, r.Left.Round(time.Minute),
		)

		b.markReminded(r)
		b.deliver(func() {
			err := b.notify(r.ChatID, msg)
			if err != nil {
				b.log.Error(errors.WrapFail(err, "send reminder"))
				b.unmarkReminded(r)
			}
		})
	}
}
