// Package email sends moderation notices to the administrator over SMTP
package email

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var templates = template.Must(template.New("email").Parse(`
{{define "submission"}}A recipe {{if .IsEdit}}edit{{else}}submission{{end}} is waiting for review.

Recipe: {{.RecipeTitle}}
Submitted by: {{.SubmittedBy}}

Approve or reject it here:
{{.ApprovalURL}}
{{end}}

{{define "review"}}A new review was posted.

Recipe: {{.RecipeTitle}}
Author: {{.Author}}
Rating: {{.Rating}}/5
{{if .Comment}}
{{.Comment}}
{{end}}{{end}}

{{define "report"}}A review was reported.

Recipe: {{.RecipeTitle}}
Reported by: {{.Reporter}}
Rating: {{.Rating}}/5
{{if .Comment}}
{{.Comment}}
{{end}}
Delete the review with this link:
{{.DeletionURL}}
{{end}}
`))

// sendFunc delivers one composed message
type sendFunc func(ctx context.Context, msgs ...*mail.Msg) error

// transport is the connection setup derived from EmailConfig
type transport struct {
	port    int
	ssl     bool
	policy  mail.TLSPolicy
	auth    bool
	timeout time.Duration
}

// transportFor maps cfg onto a connection setup. Secure relays get implicit
// TLS; the others upgrade with STARTTLS when the server offers it.
func transportFor(cfg config.EmailConfig) transport {
	t := transport{
		port:    cfg.SMTPPort,
		ssl:     cfg.Secure,
		policy:  mail.TLSOpportunistic,
		auth:    cfg.SMTPUsername != "",
		timeout: cfg.Timeout,
	}
	if t.port == 0 {
		t.port = 587
		if t.ssl {
			t.port = 465
		}
	}
	if t.timeout <= 0 {
		t.timeout = 10 * time.Second
	}
	return t
}

func (t transport) options(cfg config.EmailConfig) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(t.port),
		mail.WithTimeout(t.timeout),
		mail.WithTLSPolicy(t.policy),
	}
	if t.ssl {
		opts = append(opts, mail.WithSSL())
	}
	if t.auth {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	return opts
}

// SMTPSender delivers notices through an SMTP relay
type SMTPSender struct {
	from     string
	fromName string
	send     sendFunc
	now      func() time.Time
	logger   *zap.Logger
}

// New returns an SMTP sender, or a logging sender when SMTP is not configured
func New(cfg config.EmailConfig, logger *zap.Logger) (outbound.EmailService, error) {
	if !cfg.Enabled() {
		return NewLogSender(logger), nil
	}
	sender, err := NewSMTPSender(cfg, logger)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

// NewSMTPSender creates a sender for cfg
func NewSMTPSender(cfg config.EmailConfig, logger *zap.Logger) (*SMTPSender, error) {
	t := transportFor(cfg)
	client, err := mail.NewClient(cfg.SMTPHost, t.options(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	logger = logger.Named("email")
	logger.Info("SMTP sender configured",
		zap.String("host", cfg.SMTPHost),
		zap.Int("port", t.port),
		zap.Bool("implicit_tls", t.ssl),
		zap.Duration("timeout", t.timeout),
	)

	return &SMTPSender{
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		send:     client.DialAndSendWithContext,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// SendSubmissionApproval implements outbound.EmailService
func (s *SMTPSender) SendSubmissionApproval(ctx context.Context, msg outbound.SubmissionEmail) error {
	subject := "New recipe submission: " + msg.RecipeTitle
	if msg.IsEdit {
		subject = "Recipe edit proposal: " + msg.RecipeTitle
	}
	return s.deliver(ctx, msg.To, subject, "submission", msg)
}

// SendReviewNotice implements outbound.EmailService
func (s *SMTPSender) SendReviewNotice(ctx context.Context, msg outbound.ReviewEmail) error {
	return s.deliver(ctx, msg.To, "New review on "+msg.RecipeTitle, "review", msg)
}

// SendReviewReport implements outbound.EmailService
func (s *SMTPSender) SendReviewReport(ctx context.Context, msg outbound.ReportEmail) error {
	return s.deliver(ctx, msg.To, "Review reported on "+msg.RecipeTitle, "report", msg)
}

func (s *SMTPSender) deliver(ctx context.Context, to, subject, tmpl string, data any) error {
	if to == "" {
		s.logger.Warn("No recipient configured, skipping email", zap.String("subject", subject))
		return nil
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", tmpl, err)
	}

	msg, err := s.compose(to, subject, body.String())
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (s *SMTPSender) compose(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	var err error
	if s.fromName != "" {
		err = msg.FromFormat(s.fromName, s.from)
	} else {
		err = msg.From(s.from)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", s.from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(s.now())
	msg.SetBodyString(mail.TypeTextPlain, strings.TrimSpace(body))
	return msg, nil
}

// LogSender logs notices instead of sending them
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender for development setups without SMTP
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("email")}
}

// SendSubmissionApproval implements outbound.EmailService
func (s *LogSender) SendSubmissionApproval(ctx context.Context, msg outbound.SubmissionEmail) error {
	s.logger.Info("Submission approval email (SMTP disabled)",
		zap.String("to", msg.To),
		zap.String("recipe", msg.RecipeTitle),
		zap.String("approval_url", msg.ApprovalURL),
	)
	return nil
}

// SendReviewNotice implements outbound.EmailService
func (s *LogSender) SendReviewNotice(ctx context.Context, msg outbound.ReviewEmail) error {
	s.logger.Info("Review notice email (SMTP disabled)",
		zap.String("to", msg.To),
		zap.String("recipe", msg.RecipeTitle),
		zap.Int("rating", msg.Rating),
	)
	return nil
}

// SendReviewReport implements outbound.EmailService
func (s *LogSender) SendReviewReport(ctx context.Context, msg outbound.ReportEmail) error {
	s.logger.Info("Review report email (SMTP disabled)",
		zap.String("to", msg.To),
		zap.String("review_id", msg.ReviewID.String()),
		zap.String("deletion_url", msg.DeletionURL),
	)
	return nil
}
