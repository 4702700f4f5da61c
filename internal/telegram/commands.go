package telegram

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
)

const (
	requesterPrefix = "tg:"

	somethingWentWrong = "Что-то пошло не так"
)

const usage = "" +
	"Доступные команды:\n" +
	"/book — забронировать ресурс\n" +
	"/cancel <ID> — отменить бронь\n" +
	"/day <ресурс> <" + dayFormatHint + "> — брони ресурса за день\n" +
	"/free <" + slotFormatHint + "> — свободные ресурсы на время\n"

func requesterOf(userID int64) string {
	return requesterPrefix + strconv.FormatInt(userID, 10)
}

// chatOf returns the chat of a requester created by the bot.
func chatOf(requester string) (int64, bool) {
	raw, ok := strings.CutPrefix(requester, requesterPrefix)
	if !ok {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

func (b *Bot) checkResource(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}

	known := b.ledger.Resources()
	if len(known) == 0 {
		return key, true
	}
	return key, slices.Contains(known, key)
}

func (b *Bot) knownResources() string {
	catalog := b.ledger.Catalog()
	if len(catalog) == 0 {
		return "Введите название ресурса"
	}

	lines := make([]string, 0, len(catalog)+1)
	lines = append(lines, "Введите название ресурса:")
	for _, info := range catalog {
		line := info.Key
		if info.Name != "" {
			line += " (" + info.Name + ")"
		}
		if info.Description != "" {
			line += ": " + info.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) book(requester, resource, slotText string) string {
	loc := b.time.Location()

	slot, err := parseSlot(slotText, loc)
	if err != nil {
		b.log.Debug(err)
		return "Плохой формат, нужно " + slotFormatHint
	}

	booked, err := b.ledger.Propose(resource, slot, requester)

	var conflict *ledger.ConflictError
	switch {
	case errors.As(err, &conflict):
		return "Это время занято:\n" + formatBookings(conflict.Bookings, loc)
	case errors.Is(err, ledger.ErrInvalidInterval), errors.Is(err, ledger.ErrInvalidResource):
		b.log.Debug(err)
		return "Некорректная бронь"
	case err != nil:
		b.log.Error(errors.WrapFail(err, "propose booking"))
		return somethingWentWrong
	}

	return fmt.Sprintf("Забронировано: `%s` %s: %s", booked.ID, booked.Resource, formatSlot(booked.Interval, loc))
}

func (b *Bot) cancelBooking(requester string, args []string) string {
	if len(args) != 1 {
		return "Использование: /cancel <ID>"
	}
	id := args[0]

	booking, err := b.ledger.Get(id)
	if errors.Is(err, ledger.ErrNotFound) {
		return "Бронь не найдена"
	}
	if err != nil {
		b.log.Error(errors.WrapFail(err, "get booking to cancel"))
		return somethingWentWrong
	}

	if booking.Requester != requester {
		return "Это не ваша бронь"
	}

	_, err = b.ledger.Cancel(id)
	if errors.Is(err, ledger.ErrNotFound) {
		return "Бронь уже отменена"
	}
	if err != nil {
		b.log.Error(errors.WrapFail(err, "cancel booking"))
		return somethingWentWrong
	}

	return fmt.Sprintf("Бронь `%s` отменена", id)
}

func (b *Bot) daySchedule(args []string) string {
	if len(args) != 2 {
		return "Использование: /day <ресурс> <" + dayFormatHint + ">"
	}

	loc := b.time.Location()
	day, err := parseDay(args[1], loc)
	if err != nil {
		b.log.Debug(err)
		return "Плохой формат даты, нужно " + dayFormatHint
	}

	bookings, err := b.ledger.BookingsFor(args[0], day)
	if err != nil {
		b.log.Error(errors.WrapFail(err, "get bookings for day"))
		return somethingWentWrong
	}

	if len(bookings) == 0 {
		return "В этот день броней нет"
	}
	return formatBookings(bookings, loc)
}

func (b *Bot) freeResources(args []string) string {
	slot, err := parseSlot(strings.Join(args, " "), b.time.Location())
	if err != nil {
		b.log.Debug(err)
		return "Использование: /free <" + slotFormatHint + ">"
	}

	free, err := b.ledger.Available(slot)
	if err != nil {
		b.log.Error(errors.WrapFail(err, "get available resources"))
		return somethingWentWrong
	}

	if len(free) == 0 {
		return "Свободных ресурсов нет"
	}
	return "Свободны: " + strings.Join(free, ", ")
}
