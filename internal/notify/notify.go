package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrNoRecipient signals a notification with no deliverable address.
var ErrNoRecipient = errors.New("no recipient address")

// Email is one outbound message.
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// TemplateContext is the data available to notification templates.
type TemplateContext struct {
	FirstName string
	LastName  string
	JobTitle  string
}

const (
	defaultNotMatchingSubject = "Update on your application for {{.JobTitle}}"
	defaultNotMatchingBody    = "<p>Dear {{.FirstName}} {{.LastName}},</p>" +
		"<p>Thank you for applying for the {{.JobTitle}} position. After reviewing your " +
		"application we will not be moving forward at this time.</p>" +
		"<p>We encourage you to apply for future openings that match your profile.</p>"

	defaultRejectedSubject = "Your assessment results for {{.JobTitle}}"
	defaultRejectedBody    = "<p>Dear {{.FirstName}} {{.LastName}},</p>" +
		"<p>Thank you for completing the assessments for the {{.JobTitle}} position. " +
		"Unfortunately your results did not meet the required bar and we will not be " +
		"proceeding with your application.</p>"
)

// Notifier renders and dispatches candidate-facing notifications.
type Notifier struct {
	mailer Mailer

	notMatchingSubject *template.Template
	notMatchingBody    *template.Template
	rejectedSubject    *template.Template
	rejectedBody       *template.Template
}

// Templates carries optional template-source overrides; empty strings fall
// back to the built-in wording.
type Templates struct {
	NotMatchingSubject string
	NotMatchingBody    string
	RejectedSubject    string
	RejectedBody       string
}

// New builds a Notifier, parsing all templates up front.
func New(mailer Mailer, tmpl Templates) (*Notifier, error) {
	if mailer == nil {
		return nil, errors.New("mailer is required")
	}

	n := &Notifier{mailer: mailer}
	var err error
	if n.notMatchingSubject, err = parseTemplate("not_matching_subject", tmpl.NotMatchingSubject, defaultNotMatchingSubject); err != nil {
		return nil, err
	}
	if n.notMatchingBody, err = parseTemplate("not_matching_body", tmpl.NotMatchingBody, defaultNotMatchingBody); err != nil {
		return nil, err
	}
	if n.rejectedSubject, err = parseTemplate("rejected_subject", tmpl.RejectedSubject, defaultRejectedSubject); err != nil {
		return nil, err
	}
	if n.rejectedBody, err = parseTemplate("rejected_body", tmpl.RejectedBody, defaultRejectedBody); err != nil {
		return nil, err
	}
	return n, nil
}

// SendNotMatching notifies a candidate whose fit score fell below the invite
// threshold. A missing recipient is skipped, not an error.
func (n *Notifier) SendNotMatching(ctx context.Context, recipient string, data TemplateContext) error {
	if strings.TrimSpace(recipient) == "" {
		return nil
	}
	return n.send(ctx, recipient, n.notMatchingSubject, n.notMatchingBody, data)
}

// SendRejectedAfterAssessments notifies a candidate rejected on their final
// assessment aggregate. A missing recipient here is a hard failure.
func (n *Notifier) SendRejectedAfterAssessments(ctx context.Context, recipient string, data TemplateContext) error {
	if strings.TrimSpace(recipient) == "" {
		return ErrNoRecipient
	}
	return n.send(ctx, recipient, n.rejectedSubject, n.rejectedBody, data)
}

func (n *Notifier) send(ctx context.Context, recipient string, subjectTmpl, bodyTmpl *template.Template, data TemplateContext) error {
	subject, err := render(subjectTmpl, data)
	if err != nil {
		return err
	}
	body, err := render(bodyTmpl, data)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Email{
		To:       []string{recipient},
		Subject:  subject,
		HTMLBody: body,
	})
}

func parseTemplate(name, source, fallback string) (*template.Template, error) {
	if strings.TrimSpace(source) == "" {
		source = fallback
	}
	tmpl, err := template.New(name).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return tmpl, nil
}

func render(tmpl *template.Template, data TemplateContext) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
