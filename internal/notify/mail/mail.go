// Package mail implements the mail notifier named in spec.md §6: SMTP
// transport plus template rendering against the configured template
// directory. No mail or SMTP client library appears anywhere in the
// retrieval pack (see DESIGN.md), so this package speaks SMTP directly
// via the standard library, as the pack's own webdav sink does for HTTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"

	"github.com/ingestpipe/ingestpipe/internal/config"
	"github.com/ingestpipe/ingestpipe/internal/notify"
)

const defaultTemplateName = "notification.html.tmpl"

// defaultTemplate is used when no template file is found under
// TemplateDir, so the notifier still produces readable mail out of the
// box.
const defaultTemplate = `<h2>{{.HandlerName}}: {{.Disposition}}</h2>
<table border="1" cellpadding="4">
<tr><th>Source</th><th>Check</th><th>Publish</th><th>Stored</th><th>Archived</th><th>Harvested</th></tr>
{{range .Files}}<tr><td>{{.SourcePath}}</td><td>{{.CheckPassed}}</td><td>{{.PublishType}}</td><td>{{.IsStored}}</td><td>{{.IsArchived}}</td><td>{{.IsHarvested}}</td></tr>
{{end}}</table>
{{if .Warnings}}<h3>Warnings</h3><ul>{{range .Warnings}}<li>{{.}}</li>{{end}}</ul>{{end}}`

// Notifier sends the notification payload as an HTML email over SMTP.
type Notifier struct {
	cfg          config.MailConfig
	templateDir  string
	recipients   []string
	sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New constructs a mail Notifier from the mail and templating config
// sections, sending to recipients on every Send call.
func New(cfg config.MailConfig, templateDir string, recipients []string) *Notifier {
	return &Notifier{
		cfg:          cfg,
		templateDir:  templateDir,
		recipients:   recipients,
		sendMailFunc: smtp.SendMail,
	}
}

func (n *Notifier) Send(ctx context.Context, payload notify.Payload) error {
	to := payload.Recipients
	if len(to) == 0 {
		to = n.recipients
	}

	if len(to) == 0 {
		return nil
	}

	body, err := n.render(payload)
	if err != nil {
		return fmt.Errorf("mail: rendering template: %w", err)
	}

	msg := n.buildMessage(payload, to, body)

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)
	}

	if err := n.sendMailFunc(addr, auth, n.cfg.From, to, msg); err != nil {
		return fmt.Errorf("mail: sending: %w", err)
	}

	return nil
}

func (n *Notifier) render(payload notify.Payload) ([]byte, error) {
	tmpl, err := n.loadTemplate()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (n *Notifier) loadTemplate() (*template.Template, error) {
	if n.templateDir != "" {
		path := filepath.Join(n.templateDir, defaultTemplateName)

		if tmpl, err := template.ParseFiles(path); err == nil {
			return tmpl, nil
		}
	}

	return template.New("notification").Parse(defaultTemplate)
}

func (n *Notifier) buildMessage(payload notify.Payload, to []string, body []byte) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", joinRecipients(to))
	fmt.Fprintf(&buf, "Subject: ingestpipe: %s (%s)\r\n", payload.HandlerName, payload.Disposition)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	buf.Write(body)

	return buf.Bytes()
}

func joinRecipients(recipients []string) string {
	out := ""

	for i, r := range recipients {
		if i > 0 {
			out += ", "
		}

		out += r
	}

	return out
}

var _ notify.Notifier = (*Notifier)(nil)
