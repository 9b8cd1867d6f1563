package clients

// Notifier delivers an email to a list of recipients. It returns an HTTP
// status code plus provider details; delivery is fire-once, no retries.
type Notifier interface {
	Send(to []string, subject string, content string) (int, string)
}
