// Package email provides a tool that sends plain-text mail over SMTP.
package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/tool"
)

// SendFunc delivers a composed message. The default uses net/smtp with
// PLAIN auth; tests substitute their own.
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Options configure the email tool.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Send     SendFunc
}

type emailArgs struct {
	To      []string `json:"to" jsonschema:"description=Recipient addresses"`
	Subject string   `json:"subject" jsonschema:"description=Message subject"`
	Body    string   `json:"body" jsonschema:"description=Plain-text message body"`
}

// New creates the email tool.
func New(optFns ...func(o *Options)) tool.Tool {
	opts := Options{
		Port: 587,
		Send: smtp.SendMail,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return tool.NewFunctionToolFromStruct(
		"send_email",
		"Send a plain-text email to one or more recipients",
		emailArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			to := decodeRecipients(args["to"])
			subject, _ := args["subject"].(string)
			body, _ := args["body"].(string)
			if err := send(opts, to, subject, body); err != nil {
				return nil, err
			}
			return map[string]any{"sent": true, "recipients": len(to)}, nil
		},
	)
}

func decodeRecipients(v any) []string {
	raw, _ := v.([]any)
	to := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok && s != "" {
			to = append(to, s)
		}
	}
	return to
}

func send(opts Options, to []string, subject, body string) error {
	if opts.Host == "" || opts.From == "" {
		return fmt.Errorf("email tool is not configured: host and from address are required")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients given")
	}

	var auth smtp.Auth
	if opts.Username != "" {
		auth = smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
	}

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	return opts.Send(addr, auth, opts.From, to, Compose(opts.From, to, subject, body))
}

// Compose renders an RFC 5322 style plain-text message.
func Compose(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
