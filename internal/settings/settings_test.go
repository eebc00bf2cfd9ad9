package settings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/internal/store"
	"github.com/sailnathona/ImpactHub/pkg/email"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

type fakeConfigStore struct {
	emailCfg *models.EmailTransportConfig
	saveErr  error
	creds    []models.SocialCredentialSet
	nextID   int
}

func (f *fakeConfigStore) GetEmailConfig(context.Context) (*models.EmailTransportConfig, error) {
	if f.emailCfg == nil {
		return nil, store.ErrNotFound
	}
	cfg := *f.emailCfg
	return &cfg, nil
}

func (f *fakeConfigStore) SaveEmailConfig(_ context.Context, cfg *models.EmailTransportConfig) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *cfg
	f.emailCfg = &c
	return nil
}

func (f *fakeConfigStore) ListSocialCredentials(context.Context) ([]models.SocialCredentialSet, error) {
	return f.creds, nil
}

func (f *fakeConfigStore) GetSocialCredential(_ context.Context, id int) (*models.SocialCredentialSet, error) {
	for _, c := range f.creds {
		if c.ID == id {
			cred := c
			return &cred, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeConfigStore) AddSocialCredential(_ context.Context, c *models.SocialCredentialSet) error {
	f.nextID++
	c.ID = f.nextID
	f.creds = append(f.creds, *c)
	return nil
}

func (f *fakeConfigStore) DeleteSocialCredential(_ context.Context, id int) error {
	for i, c := range f.creds {
		if c.ID == id {
			f.creds = append(f.creds[:i], f.creds[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func validConfig() *models.EmailTransportConfig {
	return &models.EmailTransportConfig{
		Mode: ModeAuthenticated, Host: "smtp.example.com", Port: "587",
		User: "mailer", Secret: "s3cret", SenderAddress: "news@example.org",
		SenderName: "Example News",
	}
}

func TestLoadDefaultsWhenUnconfigured(t *testing.T) {
	transport := NewTransport()
	svc := NewService(&fakeConfigStore{}, transport, logging.NewLogger())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := transport.Current(); got.Mode != ModeLocal {
		t.Errorf("expected local default, got %+v", got)
	}
}

func TestLoadActivatesStoredTransport(t *testing.T) {
	transport := NewTransport()
	svc := NewService(&fakeConfigStore{emailCfg: validConfig()}, transport, logging.NewLogger())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := transport.Current(); got.Host != "smtp.example.com" || got.Mode != ModeAuthenticated {
		t.Errorf("stored transport not activated: %+v", got)
	}
}

func TestUpdateTransportRejectsInvalid(t *testing.T) {
	transport := NewTransport()
	fs := &fakeConfigStore{}
	svc := NewService(fs, transport, logging.NewLogger())

	bad := &models.EmailTransportConfig{Mode: ModeAuthenticated, Host: "smtp.example.com"}
	err := svc.UpdateTransport(context.Background(), bad)
	if !errors.Is(err, ErrInvalidTransport) {
		t.Fatalf("expected ErrInvalidTransport, got %v", err)
	}
	if fs.emailCfg != nil {
		t.Error("invalid transport must not be persisted")
	}
	if transport.Current().Mode != ModeLocal {
		t.Error("invalid transport must not be activated")
	}
}

func TestUpdateTransportPersistsAndActivates(t *testing.T) {
	transport := NewTransport()
	fs := &fakeConfigStore{}
	svc := NewService(fs, transport, logging.NewLogger())

	if err := svc.UpdateTransport(context.Background(), validConfig()); err != nil {
		t.Fatalf("UpdateTransport: %v", err)
	}
	if fs.emailCfg == nil || fs.emailCfg.User != "mailer" {
		t.Errorf("transport not persisted: %+v", fs.emailCfg)
	}
	if transport.Current().Host != "smtp.example.com" {
		t.Errorf("transport not activated: %+v", transport.Current())
	}
}

func TestUpdateTransportNotActivatedOnSaveFailure(t *testing.T) {
	transport := NewTransport()
	fs := &fakeConfigStore{saveErr: errors.New("db down")}
	svc := NewService(fs, transport, logging.NewLogger())

	if err := svc.UpdateTransport(context.Background(), validConfig()); err == nil {
		t.Fatal("expected save failure")
	}
	if transport.Current().Mode != ModeLocal {
		t.Error("failed save must leave the active transport unchanged")
	}
}

func TestSenderConfigMapsModes(t *testing.T) {
	transport := NewTransport()
	transport.set(*validConfig())

	cfg := transport.SenderConfig()
	if cfg.Mode != email.ModeAuthenticated || cfg.From != "news@example.org" {
		t.Errorf("unexpected sender config: %+v", cfg)
	}
	if cfg.FromName != "Example News" {
		t.Errorf("display name not carried through: %q", cfg.FromName)
	}

	transport.set(models.EmailTransportConfig{Mode: ModeLocal, Host: "localhost", SenderAddress: "a@b"})
	if transport.SenderConfig().Mode != email.ModeLocal {
		t.Error("expected local sender mode")
	}
}

func TestValidateDefaultsPort(t *testing.T) {
	cfg := &models.EmailTransportConfig{Mode: ModeLocal, Host: "localhost", SenderAddress: "a@b"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Port != "25" {
		t.Errorf("expected default port 25, got %q", cfg.Port)
	}
}

func TestTransportConcurrentAccess(t *testing.T) {
	transport := NewTransport()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			transport.set(*validConfig())
		}()
		go func() {
			defer wg.Done()
			_ = transport.Current()
		}()
	}
	wg.Wait()
}

func TestAddSocialCredentialRequiresAllFields(t *testing.T) {
	svc := NewService(&fakeConfigStore{}, NewTransport(), logging.NewLogger())

	err := svc.AddSocialCredential(context.Background(), &models.SocialCredentialSet{Name: "main", APIKey: "k"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	full := &models.SocialCredentialSet{Name: "main", APIKey: "k", APISecret: "s", AccessToken: "t", AccessTokenSecret: "ts"}
	if err := svc.AddSocialCredential(context.Background(), full); err != nil {
		t.Fatalf("AddSocialCredential: %v", err)
	}
	if full.ID == 0 {
		t.Error("expected assigned credential id")
	}
}
