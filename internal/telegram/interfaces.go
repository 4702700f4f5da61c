package telegram

//go:generate mockgen -source=interfaces.go -destination=mock_interfaces_test.go -package=telegram

import "gopkg.in/telebot.v3"

type messageSender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}
