package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// SMTPNotifier emails escalation alerts to the reviewer inbox over implicit
// TLS (port 465 style endpoints).
type SMTPNotifier struct {
	Host     string
	Port     string
	Username string
	Password string
	To       string
}

func (s SMTPNotifier) EscalatedIssue(ctx context.Context, n Escalation) error {
	body := fmt.Sprintf(
		"Escalated Issue %s\nUnit: %s\nCategory: %s\nUrgency: %s\n\n%s\n\nRecord: %s\n",
		n.IssueID, n.Unit, n.Category, n.Urgency, n.Summary, n.RecordID,
	)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.Username)
	fmt.Fprintf(&msg, "To: %s\r\n", s.To)
	fmt.Fprintf(&msg, "Subject: Escalated %s\r\n", n.IssueID)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := net.JoinHostPort(s.Host, s.Port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.Username); err != nil {
		return err
	}
	if err := client.Rcpt(s.To); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg.String())); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
