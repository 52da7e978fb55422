// Package notifsvc delivers domain notifications (new submission, new appeal)
// to users. All implementations are fire-and-forget: the triggering operation
// never waits on, or fails because of, delivery.
package notifsvc

import (
	"fmt"
	"net/mail"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// ConsoleService logs notifications; development default.
type ConsoleService struct {
	log core.Logger
}

var _ core.NotificationService = (*ConsoleService)(nil)

func NewConsoleService(log core.Logger) *ConsoleService {
	return &ConsoleService{log: log}
}

func (svc *ConsoleService) Notify(notifications ...core.Notification) {
	for _, n := range notifications {
		svc.log.Info(fmt.Sprintf("notify %s: %s", n.ToUserID, n.Type), n.Payload)
	}
}

// EmailService delivers notifications over email.
type EmailService struct {
	users   user.Repository
	mailSvc core.EmailService
	log     core.Logger
}

var _ core.NotificationService = (*EmailService)(nil)

func NewEmailService(users user.Repository, mailSvc core.EmailService, log core.Logger) *EmailService {
	return &EmailService{users: users, mailSvc: mailSvc, log: log}
}

func (svc *EmailService) Notify(notifications ...core.Notification) {
	for _, n := range notifications {
		usr, err := svc.users.GetUserByID(n.ToUserID)
		if err != nil {
			// swallowed: notification failure must not fail the operation
			svc.log.Warn("notify: recipient lookup failed", n.ToUserID, err)
			continue
		}
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject: subjectFor(n.Type),
			BodyStr: bodyFor(n),
		})
	}
}

func subjectFor(typ string) string {
	switch typ {
	case core.NotifySubmissionReceived:
		return "New submission received"
	case core.NotifyAppealFiled:
		return "A grade appeal was filed"
	case core.NotifyAppealResolved:
		return "Your grade appeal was resolved"
	}
	return typ
}

func bodyFor(n core.Notification) string {
	body := subjectFor(n.Type) + "."
	for k, v := range n.Payload {
		body += fmt.Sprintf("\n%s: %v", k, v)
	}
	return body
}

// DummyService records notifications; test double.
type DummyService struct {
	Sent []core.Notification
}

var _ core.NotificationService = (*DummyService)(nil)

func NewDummyService() *DummyService { return &DummyService{} }

func (svc *DummyService) Notify(notifications ...core.Notification) {
	svc.Sent = append(svc.Sent, notifications...)
}
