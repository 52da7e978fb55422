package core

// Notification types.
const (
	NotifySubmissionReceived = "submission.received"
	NotifyAppealFiled        = "appeal.filed"
	NotifyAppealResolved     = "appeal.resolved"
)

type Notification struct {
	ToUserID string
	Type     string
	Payload  map[string]interface{}
}

// NotificationService delivers notifications out of band. Delivery is
// fire-and-forget: implementations must not block the caller and must swallow
// (log, at most) delivery failures.
type NotificationService interface {
	Notify(notifications ...Notification)
}
