// Package whatsapp holds the outbound side of the messaging bridge.
package whatsapp

import (
	"context"
	"log"
	"strings"
)

// Sender delivers a text message to a phone number. Callers treat failures
// as non-fatal: they are logged and never retried.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
	Status() Status
}

type Status struct {
	Ready   bool   `json:"ready"`
	Service string `json:"service"`
}

// CleanPhone drops "+" and whitespace, the form the bridge expects.
func CleanPhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == '+' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, phone)
}

// LogSender only logs outgoing messages. Used in dev when no bridge
// credentials are configured.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, phone, text string) error {
	s.logger.Printf("whatsapp send (log only) to=%s len=%d", CleanPhone(phone), len(text))
	return nil
}

func (s *LogSender) Status() Status {
	return Status{Ready: true, Service: "log"}
}
