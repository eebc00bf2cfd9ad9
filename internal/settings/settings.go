// Package settings owns the mutable runtime configuration: the outbound
// mail transport and the social credential sets. The transport is loaded
// once at startup into an in-process holder and atomically swapped on
// updates, so senders never query the database per send.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/internal/store"
	"github.com/sailnathona/ImpactHub/pkg/email"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

// Mail transport modes.
const (
	ModeLocal         = "local"
	ModeAuthenticated = "authenticated"
)

var ErrInvalidTransport = errors.New("invalid mail transport configuration")

// Transport is the shared holder for the current mail configuration.
type Transport struct {
	mu  sync.RWMutex
	cfg models.EmailTransportConfig
}

func NewTransport() *Transport {
	return &Transport{cfg: models.EmailTransportConfig{Mode: ModeLocal}}
}

// Current returns a copy of the active configuration.
func (t *Transport) Current() models.EmailTransportConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

func (t *Transport) set(cfg models.EmailTransportConfig) {
	t.mu.Lock()
	t.cfg = cfg
	t.mu.Unlock()
}

// SenderConfig maps the active transport onto the mail sender's config.
func (t *Transport) SenderConfig() email.Config {
	cfg := t.Current()
	mode := email.ModeLocal
	if cfg.Mode == ModeAuthenticated {
		mode = email.ModeAuthenticated
	}
	return email.Config{
		Mode:     mode,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Secret:   cfg.Secret,
		From:     cfg.SenderAddress,
		FromName: cfg.SenderName,
	}
}

// ConfigStore is the persistence surface the settings service needs.
type ConfigStore interface {
	GetEmailConfig(ctx context.Context) (*models.EmailTransportConfig, error)
	SaveEmailConfig(ctx context.Context, cfg *models.EmailTransportConfig) error
	ListSocialCredentials(ctx context.Context) ([]models.SocialCredentialSet, error)
	GetSocialCredential(ctx context.Context, id int) (*models.SocialCredentialSet, error)
	AddSocialCredential(ctx context.Context, c *models.SocialCredentialSet) error
	DeleteSocialCredential(ctx context.Context, id int) error
}

type Service struct {
	store     ConfigStore
	transport *Transport
	logger    logging.Logger
}

func NewService(s ConfigStore, transport *Transport, logger logging.Logger) *Service {
	return &Service{store: s, transport: transport, logger: logger}
}

// Load pulls the persisted transport into the holder. A missing record
// leaves the local-mode default in place.
func (s *Service) Load(ctx context.Context) error {
	cfg, err := s.store.GetEmailConfig(ctx)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Info("No stored mail transport, defaulting to local relay")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load mail transport: %w", err)
	}
	if err := Validate(cfg); err != nil {
		s.logger.WithError(err).Warn("Stored mail transport invalid, defaulting to local relay")
		return nil
	}
	s.transport.set(*cfg)
	return nil
}

// UpdateTransport validates, persists and activates a new transport in one
// step, so the holder never diverges from the stored record.
func (s *Service) UpdateTransport(ctx context.Context, cfg *models.EmailTransportConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := s.store.SaveEmailConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save mail transport: %w", err)
	}
	s.transport.set(*cfg)
	s.logger.WithField("mode", cfg.Mode).WithField("host", cfg.Host).
		Info("Mail transport updated")
	return nil
}

func (s *Service) Transport() models.EmailTransportConfig {
	return s.transport.Current()
}

func (s *Service) ListSocialCredentials(ctx context.Context) ([]models.SocialCredentialSet, error) {
	return s.store.ListSocialCredentials(ctx)
}

func (s *Service) GetSocialCredential(ctx context.Context, id int) (*models.SocialCredentialSet, error) {
	return s.store.GetSocialCredential(ctx, id)
}

func (s *Service) AddSocialCredential(ctx context.Context, c *models.SocialCredentialSet) error {
	if c.Name == "" || c.APIKey == "" || c.APISecret == "" || c.AccessToken == "" || c.AccessTokenSecret == "" {
		return fmt.Errorf("%w: all credential fields are required", ErrInvalidTransport)
	}
	if err := s.store.AddSocialCredential(ctx, c); err != nil {
		return err
	}
	s.logger.WithField("credential_id", c.ID).WithField("name", c.Name).
		Info("Social credential set added")
	return nil
}

func (s *Service) DeleteSocialCredential(ctx context.Context, id int) error {
	return s.store.DeleteSocialCredential(ctx, id)
}

// Validate checks a transport config for internal consistency. Local mode
// needs a relay host; authenticated mode additionally needs credentials
// and a numeric port.
func Validate(cfg *models.EmailTransportConfig) error {
	switch cfg.Mode {
	case ModeLocal:
		if cfg.Host == "" {
			return fmt.Errorf("%w: local mode requires a relay host", ErrInvalidTransport)
		}
	case ModeAuthenticated:
		if cfg.Host == "" || cfg.User == "" || cfg.Secret == "" {
			return fmt.Errorf("%w: authenticated mode requires host, user and secret", ErrInvalidTransport)
		}
		if _, err := strconv.Atoi(cfg.Port); err != nil {
			return fmt.Errorf("%w: port must be numeric", ErrInvalidTransport)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidTransport, cfg.Mode)
	}
	if cfg.SenderAddress == "" {
		return fmt.Errorf("%w: sender address is required", ErrInvalidTransport)
	}
	if cfg.Port == "" {
		cfg.Port = "25"
	}
	return nil
}
