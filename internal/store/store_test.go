package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, logging.NewLogger()), mock
}

func campaignRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "stage", "start_date", "end_date", "round1", "round2_questions",
		"round2_answers", "plan", "materials", "content_email", "content_social",
		"recipients", "engagement", "progress_pct", "created_at", "updated_at",
	}).AddRow(
		"abc12345", "River Cleanup", "tracking", "2026-01-01", "2026-03-01",
		[]byte(`{"campaign_goal":"clean rivers","objective":"o","target_audience":"t"}`),
		[]byte(`[{"label":"Budget?","type":"text","field_name":"budget"}]`),
		[]byte(`{"budget":"low"}`),
		"the plan",
		[]byte(`[{"filename":"flyer.pdf","storage_path":"/up/flyer.pdf"}]`),
		[]byte(`["snippet"]`),
		[]byte(`["tweet"]`),
		[]byte(`["a@example.com"]`),
		[]byte(`{"a@example.com":{"opened":true,"clicked":false}}`),
		42, now, now,
	)
}

func TestGetCampaign(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").
		WithArgs("abc12345").
		WillReturnRows(campaignRows())

	c, err := s.GetCampaign(context.Background(), "abc12345")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if c.Stage != models.StageTracking {
		t.Errorf("expected tracking stage, got %s", c.Stage)
	}
	if c.Round1.Goal != "clean rivers" {
		t.Errorf("round1 not decoded: %+v", c.Round1)
	}
	if !c.Engagement["a@example.com"].Opened || c.Engagement["a@example.com"].Clicked {
		t.Errorf("engagement not decoded: %+v", c.Engagement)
	}
	if c.ProgressPct != 42 {
		t.Errorf("expected progress 42, got %d", c.ProgressPct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetCampaign(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCampaignCorruptBlobResets(t *testing.T) {
	s, mock := newTestStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "name", "stage", "start_date", "end_date", "round1", "round2_questions",
		"round2_answers", "plan", "materials", "content_email", "content_social",
		"recipients", "engagement", "progress_pct", "created_at", "updated_at",
	}).AddRow(
		"abc12345", "n", "created", "", "",
		[]byte(`not json`), []byte(`[]`), []byte(`{}`), "", []byte(`[]`),
		[]byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`garbage`), 0, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").WillReturnRows(rows)

	c, err := s.GetCampaign(context.Background(), "abc12345")
	if err != nil {
		t.Fatalf("corrupt blob should not fail the read: %v", err)
	}
	if c.Round1 != (models.Round1Data{}) {
		t.Errorf("expected zero round1, got %+v", c.Round1)
	}
	if c.Engagement == nil || len(c.Engagement) != 0 {
		t.Errorf("expected empty engagement map, got %+v", c.Engagement)
	}
}

func TestCreateCampaign(t *testing.T) {
	s, mock := newTestStore(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO campaigns").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c := &models.Campaign{ID: "abc12345", Name: "n", Stage: models.StageCreated}
	if err := s.CreateCampaign(context.Background(), c); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	if c.CreatedAt.IsZero() {
		t.Error("expected created_at populated from insert")
	}
}

func TestUpdateCampaignNotFound(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("UPDATE campaigns SET").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	err := s.UpdateCampaign(context.Background(), &models.Campaign{ID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCampaign(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec("DELETE FROM campaigns WHERE id").
		WithArgs("abc12345").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.DeleteCampaign(context.Background(), "abc12345"); err != nil {
		t.Fatalf("DeleteCampaign: %v", err)
	}

	mock.ExpectExec("DELETE FROM campaigns WHERE id").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := s.DeleteCampaign(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetEngagementFlag(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(regexp.QuoteMeta("jsonb_set(engagement, ARRAY[$2, $3]::text[], 'true'::jsonb)")).
		WithArgs("abc12345", "a@example.com", FlagOpened).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SetEngagementFlag(context.Background(), "abc12345", "a@example.com", FlagOpened); err != nil {
		t.Fatalf("SetEngagementFlag: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSetEngagementFlagUnknownRecipientIsNoOp(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec("UPDATE campaigns").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("abc12345").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := s.SetEngagementFlag(context.Background(), "abc12345", "stranger@example.com", FlagClicked)
	if err != nil {
		t.Fatalf("unknown recipient should be a no-op, got %v", err)
	}
}

func TestSetEngagementFlagUnknownCampaign(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec("UPDATE campaigns").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := s.SetEngagementFlag(context.Background(), "missing", "a@example.com", FlagOpened)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetEngagementFlagRejectsUnknownFlag(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SetEngagementFlag(context.Background(), "abc12345", "a@example.com", "forwarded"); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestEmailConfigRoundTrip(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec("INSERT INTO email_transport_config").
		WithArgs("authenticated", "smtp.example.com", "587", "mailer", "s3cret", "news@example.org", "Example News").
		WillReturnResult(sqlmock.NewResult(0, 1))

	cfg := &models.EmailTransportConfig{
		Mode: "authenticated", Host: "smtp.example.com", Port: "587",
		User: "mailer", Secret: "s3cret", SenderAddress: "news@example.org",
		SenderName: "Example News",
	}
	if err := s.SaveEmailConfig(context.Background(), cfg); err != nil {
		t.Fatalf("SaveEmailConfig: %v", err)
	}

	mock.ExpectQuery("SELECT (.+) FROM email_transport_config WHERE id = 1").
		WillReturnRows(sqlmock.NewRows([]string{"mode", "host", "port", "mail_user", "mail_secret", "sender_address", "sender_name"}).
			AddRow("authenticated", "smtp.example.com", "587", "mailer", "s3cret", "news@example.org", "Example News"))

	got, err := s.GetEmailConfig(context.Background())
	if err != nil {
		t.Fatalf("GetEmailConfig: %v", err)
	}
	if got.Host != "smtp.example.com" || got.Secret != "s3cret" || got.SenderName != "Example News" {
		t.Errorf("unexpected config: %+v", got)
	}
}

func TestGetEmailConfigNotFound(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("SELECT (.+) FROM email_transport_config").
		WillReturnRows(sqlmock.NewRows([]string{"mode"}))

	_, err := s.GetEmailConfig(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSocialCredentials(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("INSERT INTO social_credentials").
		WithArgs("main", "k", "ks", "t", "ts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	cred := &models.SocialCredentialSet{Name: "main", APIKey: "k", APISecret: "ks", AccessToken: "t", AccessTokenSecret: "ts"}
	if err := s.AddSocialCredential(context.Background(), cred); err != nil {
		t.Fatalf("AddSocialCredential: %v", err)
	}
	if cred.ID != 7 {
		t.Errorf("expected assigned id 7, got %d", cred.ID)
	}

	mock.ExpectQuery("SELECT (.+) FROM social_credentials ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "api_key", "api_secret", "access_token", "access_token_secret"}).
			AddRow(7, "main", "k", "ks", "t", "ts"))
	creds, err := s.ListSocialCredentials(context.Background())
	if err != nil {
		t.Fatalf("ListSocialCredentials: %v", err)
	}
	if len(creds) != 1 || creds[0].Name != "main" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	mock.ExpectExec("DELETE FROM social_credentials WHERE id").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.DeleteSocialCredential(context.Background(), 7); err != nil {
		t.Fatalf("DeleteSocialCredential: %v", err)
	}
}
