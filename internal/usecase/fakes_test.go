package usecase

import (
	"context"
	"testing"
	"time"

	"account-service/internal/data/repository/repotest"
	"account-service/pkg/notify"
	"account-service/pkg/storage"
	"account-service/pkg/token"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingNotifier keeps every message it was asked to deliver.
type recordingNotifier struct {
	email []notify.Message
	sms   []notify.Message
	err   error
}

func (n *recordingNotifier) SendEmailOTP(_ context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.email = append(n.email, msg)
	return nil
}

func (n *recordingNotifier) SendSMSOTP(_ context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sms = append(n.sms, msg)
	return nil
}

func (n *recordingNotifier) lastEmail(t *testing.T) notify.Message {
	t.Helper()
	require.NotEmpty(t, n.email)
	return n.email[len(n.email)-1]
}

type fakeUploader struct {
	userID      uuid.UUID
	contentType string
}

func (f *fakeUploader) PresignUpload(_ context.Context, userID uuid.UUID, contentType string) (*storage.Upload, error) {
	if contentType == "image/gif" {
		return nil, storage.ErrUnsupportedContentType
	}
	f.userID = userID
	f.contentType = contentType
	return &storage.Upload{
		UploadURL: "https://bucket.example/avatars/" + userID.String() + "/x.png?sig=1",
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		AvatarURL: "https://cdn.example/avatars/" + userID.String() + "/x.png",
		ExpiresAt: time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC),
	}, nil
}

// clock is a settable time source shared by the service under test.
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() *utils.Config {
	return &utils.Config{
		App: utils.AppConfig{Name: "account-service", ExposeOTP: true},
		JWT: utils.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     96 * time.Hour,
			RefreshTTL:    96 * time.Hour,
			RecoveryTTL:   10 * time.Minute,
		},
		OTP: utils.OTPConfig{
			Length:           6,
			ActivationExpiry: 30 * time.Minute,
			ResendExpiry:     60 * time.Second,
			RecoveryExpiry:   60 * time.Second,
		},
	}
}

type authFixture struct {
	svc      *authService
	store    *repotest.MemStore
	notifier *recordingNotifier
	issuer   *token.Issuer
	clock    *clock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	config := testConfig()
	issuer, err := token.NewIssuer(config.JWT)
	require.NoError(t, err)

	store := repotest.NewMemStore()
	notifier := &recordingNotifier{}
	clk := &clock{t: time.Now()}

	svc := NewAuthService(store.Repository(), issuer, notifier, config, zap.NewNop()).(*authService)
	svc.now = clk.now

	return &authFixture{svc: svc, store: store, notifier: notifier, issuer: issuer, clock: clk}
}
