package clients

import (
	"fmt"
	"log"
	"net/http"
)

type (
	MockNotifier struct {
		failWith           int
		lastSentEmailsArgs *EmailArgs
	}

	EmailArgs struct {
		To      []string
		Subject string
		Msg     string
	}
)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// FailWith makes every subsequent Send report the given status code.
func (c *MockNotifier) FailWith(status int) {
	c.failWith = status
}

func (c *MockNotifier) Send(to []string, subject string, msg string) (int, string) {
	if c.failWith != 0 {
		return c.failWith, "notifier disabled by test"
	}
	details := fmt.Sprintf("Send message with subject[%s] to %v", subject, to)
	c.lastSentEmailsArgs = &EmailArgs{To: to, Subject: subject, Msg: msg}
	log.Println(details)
	return http.StatusOK, details
}

func (c *MockNotifier) LastEmail() *EmailArgs {
	return c.lastSentEmailsArgs
}
