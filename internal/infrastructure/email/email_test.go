package email

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

func newTestSender(t *testing.T) (*SMTPSender, *[]*mail.Msg) {
	t.Helper()
	sender, err := NewSMTPSender(config.EmailConfig{
		SMTPHost:    "smtp.example",
		SMTPPort:    2525,
		FromAddress: "no-reply@foodtrack.example",
		FromName:    "FoodTrack",
	}, zap.NewNop())
	require.NoError(t, err)
	sender.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }

	var sent []*mail.Msg
	sender.send = func(_ context.Context, msgs ...*mail.Msg) error {
		sent = append(sent, msgs...)
		return nil
	}
	return sender, &sent
}

func subject(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	values := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, values, 1)
	decoded, err := new(mime.WordDecoder).DecodeHeader(values[0])
	require.NoError(t, err)
	return decoded
}

func rendered(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestTransportFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmailConfig
		want transport
	}{
		{
			name: "starttls when offered",
			cfg:  config.EmailConfig{SMTPPort: 587, Timeout: 5 * time.Second},
			want: transport{port: 587, policy: mail.TLSOpportunistic, timeout: 5 * time.Second},
		},
		{
			name: "secure uses implicit tls",
			cfg:  config.EmailConfig{SMTPPort: 465, Secure: true, SMTPUsername: "mailer", Timeout: time.Second},
			want: transport{port: 465, ssl: true, policy: mail.TLSOpportunistic, auth: true, timeout: time.Second},
		},
		{
			name: "secure without port defaults to 465",
			cfg:  config.EmailConfig{Secure: true},
			want: transport{port: 465, ssl: true, policy: mail.TLSOpportunistic, timeout: 10 * time.Second},
		},
		{
			name: "plain without port defaults to 587",
			cfg:  config.EmailConfig{},
			want: transport{port: 587, policy: mail.TLSOpportunistic, timeout: 10 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transportFor(tt.cfg))
		})
	}
}

func TestNewSMTPSender_BuildsSecureClient(t *testing.T) {
	cfg := config.EmailConfig{
		SMTPHost:     "smtp.example",
		SMTPPort:     465,
		Secure:       true,
		SMTPUsername: "mailer",
		SMTPPassword: "secret",
		Timeout:      3 * time.Second,
		FromAddress:  "no-reply@foodtrack.example",
	}

	client, err := mail.NewClient(cfg.SMTPHost, transportFor(cfg).options(cfg)...)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example:465", client.ServerAddr())

	sender, err := NewSMTPSender(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, sender.send)
}

func TestSMTPSender_SendSubmissionApproval(t *testing.T) {
	// Arrange
	sender, sent := newTestSender(t)

	// Act
	err := sender.SendSubmissionApproval(context.Background(), outbound.SubmissionEmail{
		To:           "admin@foodtrack.example",
		SubmissionID: uuid.New(),
		RecipeTitle:  "Ratatouille",
		SubmittedBy:  "Camille Martin",
		ApprovalURL:  "http://localhost:3000/recipe-submissions/approve/abc123",
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, *sent, 1)
	msg := (*sent)[0]
	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@foodtrack.example"}, recipients)
	assert.Equal(t, "New recipe submission: Ratatouille", subject(t, msg))
	assert.Equal(t, []string{`"FoodTrack" <no-reply@foodtrack.example>`}, msg.GetFromString())

	body := rendered(t, msg)
	assert.Contains(t, body, "http://localhost:3000/recipe-submissions/approve/abc123")
	assert.Contains(t, body, "Submitted by: Camille Martin")
}

func TestSMTPSender_EditProposalSubject(t *testing.T) {
	sender, sent := newTestSender(t)

	err := sender.SendSubmissionApproval(context.Background(), outbound.SubmissionEmail{
		To: "admin@foodtrack.example", RecipeTitle: "Quiche", IsEdit: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "Recipe edit proposal: Quiche", subject(t, (*sent)[0]))
	assert.Contains(t, rendered(t, (*sent)[0]), "A recipe edit is waiting")
}

func TestSMTPSender_SendReviewReport(t *testing.T) {
	sender, sent := newTestSender(t)

	err := sender.SendReviewReport(context.Background(), outbound.ReportEmail{
		To:          "admin@foodtrack.example",
		RecipeTitle: "Crêpes",
		Reporter:    "Lou",
		Rating:      1,
		Comment:     "spam",
		DeletionURL: "http://localhost:8080/api/v1/reviews/delete/tok",
	})

	require.NoError(t, err)
	msg := (*sent)[0]
	assert.Equal(t, "Review reported on Crêpes", subject(t, msg))
	body := rendered(t, msg)
	assert.Contains(t, body, "Rating: 1/5")
	assert.Contains(t, body, "http://localhost:8080/api/v1/reviews/delete/tok")
}

func TestSMTPSender_SkipsWithoutRecipient(t *testing.T) {
	sender, sent := newTestSender(t)

	err := sender.SendReviewNotice(context.Background(), outbound.ReviewEmail{RecipeTitle: "Soupe"})

	require.NoError(t, err)
	assert.Empty(t, *sent)
}

func TestSMTPSender_RejectsInvalidRecipient(t *testing.T) {
	sender, sent := newTestSender(t)

	err := sender.SendReviewNotice(context.Background(), outbound.ReviewEmail{To: "not an address"})

	assert.ErrorContains(t, err, "invalid recipient")
	assert.Empty(t, *sent)
}

func TestSMTPSender_WrapsTransportErrors(t *testing.T) {
	sender, _ := newTestSender(t)
	sender.send = func(context.Context, ...*mail.Msg) error {
		return errors.New("connection refused")
	}

	err := sender.SendReviewNotice(context.Background(), outbound.ReviewEmail{To: "admin@foodtrack.example"})

	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTPSender_PassesContextToTransport(t *testing.T) {
	// Arrange
	sender, _ := newTestSender(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender.send = func(ctx context.Context, _ ...*mail.Msg) error {
		return ctx.Err()
	}

	// Act
	err := sender.SendReviewNotice(ctx, outbound.ReviewEmail{To: "admin@foodtrack.example"})

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_FallsBackToLogging(t *testing.T) {
	logging, err := New(config.EmailConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, logging)

	smtp, err := New(config.EmailConfig{SMTPHost: "smtp.example", SMTPPort: 25}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, smtp)

	sender := NewLogSender(zap.NewNop())
	assert.NoError(t, sender.SendReviewReport(context.Background(), outbound.ReportEmail{}))
}
