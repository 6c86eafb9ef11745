// Package notify defines the contract for the fire-and-forget UI toast
// mechanism driven by store and channel events.
package notify

import "github.com/toniosim/pbbg-client/pkg/log"

// Notifier receives user-facing notifications. Implementations must not
// block; callers treat every method as fire-and-forget.
type Notifier interface {
	Positive(message string)
	Negative(message string)
	Warning(message string)
	Info(message string)
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Positive(string) {}
func (Nop) Negative(string) {}
func (Nop) Warning(string)  {}
func (Nop) Info(string)     {}

// Log writes notifications to the default logger.
type Log struct{}

func (Log) Positive(message string) {
	log.Info("[notify] %s", message)
}

func (Log) Negative(message string) {
	log.Error("[notify] %s", message)
}

func (Log) Warning(message string) {
	log.Warn("[notify] %s", message)
}

func (Log) Info(message string) {
	log.Info("[notify] %s", message)
}
