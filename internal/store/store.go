// Package store persists campaigns and configuration in Postgres.
// Structured campaign state is kept in typed JSONB columns and decoded
// defensively: a corrupt blob resets to its zero value instead of failing
// the read.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/pkg/logging"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

var ErrNotFound = errors.New("record not found")

// Engagement flag names accepted by SetEngagementFlag.
const (
	FlagOpened  = "opened"
	FlagClicked = "clicked"
)

type Store struct {
	db     *sql.DB
	logger logging.Logger
}

func NewStore(db *sql.DB, logger logging.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const campaignColumns = `id, name, stage, start_date, end_date, round1, round2_questions,
	round2_answers, plan, materials, content_email, content_social, recipients,
	engagement, progress_pct, created_at, updated_at`

func (s *Store) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (id, name, stage, start_date, end_date, round1,
			round2_questions, round2_answers, plan, materials, content_email,
			content_social, recipients, engagement, progress_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	return s.db.QueryRowContext(ctx, query,
		c.ID, c.Name, string(c.Stage), c.StartDate, c.EndDate,
		jsonArg(c.Round1), jsonArg(c.Round2Questions), jsonArg(c.Round2Answers),
		c.Plan, jsonArg(c.Materials), jsonArg(c.ContentEmail),
		jsonArg(c.ContentSocial), jsonArg(c.Recipients), jsonArg(c.Engagement),
		c.ProgressPct,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := s.scanCampaign(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ListCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := s.scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// UpdateCampaign writes the full campaign state back. Last write wins;
// the workflow has a single writer per campaign.
func (s *Store) UpdateCampaign(ctx context.Context, c *models.Campaign) error {
	query := `
		UPDATE campaigns SET name = $2, stage = $3, start_date = $4, end_date = $5,
			round1 = $6, round2_questions = $7, round2_answers = $8, plan = $9,
			materials = $10, content_email = $11, content_social = $12,
			recipients = $13, engagement = $14, progress_pct = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		c.ID, c.Name, string(c.Stage), c.StartDate, c.EndDate,
		jsonArg(c.Round1), jsonArg(c.Round2Questions), jsonArg(c.Round2Answers),
		c.Plan, jsonArg(c.Materials), jsonArg(c.ContentEmail),
		jsonArg(c.ContentSocial), jsonArg(c.Recipients), jsonArg(c.Engagement),
		c.ProgressPct,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) DeleteCampaign(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEngagementFlag flips one recipient's opened/clicked flag to true in a
// single statement, so concurrent tracking hits stay idempotent and flags
// never move backwards. A recipient missing from the engagement map is a
// silent no-op; an unknown campaign returns ErrNotFound.
func (s *Store) SetEngagementFlag(ctx context.Context, id, recipient, flag string) error {
	if flag != FlagOpened && flag != FlagClicked {
		return fmt.Errorf("unknown engagement flag %q", flag)
	}
	query := `
		UPDATE campaigns
		SET engagement = jsonb_set(engagement, ARRAY[$2, $3]::text[], 'true'::jsonb),
			stage = 'tracking', updated_at = NOW()
		WHERE id = $1 AND engagement ? $2
	`
	result, err := s.db.ExecContext(ctx, query, id, recipient, flag)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// No row matched: either the campaign does not exist or the recipient
	// is not being tracked.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM campaigns WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if s.logger != nil {
		s.logger.WithField("campaign_id", id).WithField("recipient", recipient).
			Debug("Tracking hit for recipient outside engagement map, ignoring")
	}
	return nil
}

func (s *Store) GetEmailConfig(ctx context.Context) (*models.EmailTransportConfig, error) {
	query := `SELECT mode, host, port, mail_user, mail_secret, sender_address, sender_name
		FROM email_transport_config WHERE id = 1`
	var cfg models.EmailTransportConfig
	err := s.db.QueryRowContext(ctx, query).Scan(
		&cfg.Mode, &cfg.Host, &cfg.Port, &cfg.User, &cfg.Secret, &cfg.SenderAddress, &cfg.SenderName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) SaveEmailConfig(ctx context.Context, cfg *models.EmailTransportConfig) error {
	query := `
		INSERT INTO email_transport_config (id, mode, host, port, mail_user, mail_secret, sender_address, sender_name, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			mode = EXCLUDED.mode,
			host = EXCLUDED.host,
			port = EXCLUDED.port,
			mail_user = EXCLUDED.mail_user,
			mail_secret = EXCLUDED.mail_secret,
			sender_address = EXCLUDED.sender_address,
			sender_name = EXCLUDED.sender_name,
			updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query,
		cfg.Mode, cfg.Host, cfg.Port, cfg.User, cfg.Secret, cfg.SenderAddress, cfg.SenderName,
	)
	return err
}

func (s *Store) ListSocialCredentials(ctx context.Context) ([]models.SocialCredentialSet, error) {
	query := `SELECT id, name, api_key, api_secret, access_token, access_token_secret
		FROM social_credentials ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []models.SocialCredentialSet
	for rows.Next() {
		var c models.SocialCredentialSet
		if err := rows.Scan(&c.ID, &c.Name, &c.APIKey, &c.APISecret, &c.AccessToken, &c.AccessTokenSecret); err != nil {
			return nil, err
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

func (s *Store) GetSocialCredential(ctx context.Context, id int) (*models.SocialCredentialSet, error) {
	query := `SELECT id, name, api_key, api_secret, access_token, access_token_secret
		FROM social_credentials WHERE id = $1`
	var c models.SocialCredentialSet
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.APIKey, &c.APISecret, &c.AccessToken, &c.AccessTokenSecret,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) AddSocialCredential(ctx context.Context, c *models.SocialCredentialSet) error {
	query := `
		INSERT INTO social_credentials (name, api_key, api_secret, access_token, access_token_secret)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, query,
		c.Name, c.APIKey, c.APISecret, c.AccessToken, c.AccessTokenSecret,
	).Scan(&c.ID)
}

func (s *Store) DeleteSocialCredential(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM social_credentials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanCampaign(row rowScanner) (*models.Campaign, error) {
	var c models.Campaign
	var stage string
	var round1, questions, answers, materials, contentEmail, contentSocial, recipients, engagement []byte

	err := row.Scan(
		&c.ID, &c.Name, &stage, &c.StartDate, &c.EndDate,
		&round1, &questions, &answers, &c.Plan, &materials,
		&contentEmail, &contentSocial, &recipients, &engagement,
		&c.ProgressPct, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Stage = models.Stage(stage)
	s.decodeBlob(c.ID, "round1", round1, &c.Round1)
	s.decodeBlob(c.ID, "round2_questions", questions, &c.Round2Questions)
	s.decodeBlob(c.ID, "round2_answers", answers, &c.Round2Answers)
	s.decodeBlob(c.ID, "materials", materials, &c.Materials)
	s.decodeBlob(c.ID, "content_email", contentEmail, &c.ContentEmail)
	s.decodeBlob(c.ID, "content_social", contentSocial, &c.ContentSocial)
	s.decodeBlob(c.ID, "recipients", recipients, &c.Recipients)
	s.decodeBlob(c.ID, "engagement", engagement, &c.Engagement)
	if c.Round2Answers == nil {
		c.Round2Answers = map[string]string{}
	}
	if c.Engagement == nil {
		c.Engagement = map[string]models.Engagement{}
	}
	return &c, nil
}

// decodeBlob unmarshals a JSONB column into its typed field. A corrupt
// blob is logged and left at the zero value rather than failing the row.
func (s *Store) decodeBlob(campaignID, column string, raw []byte, target any) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, target); err != nil && s.logger != nil {
		s.logger.WithError(err).
			WithField("campaign_id", campaignID).
			WithField("column", column).
			Warn("Discarding corrupt campaign blob")
	}
}

func jsonArg(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}
