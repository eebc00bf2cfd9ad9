// Package social publishes campaign content to the social channel using
// OAuth1 user-context credentials.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dghubble/oauth1"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

const defaultPostURL = "https://api.twitter.com/2/tweets"

// PostResult is the per-message outcome of a batch post.
type PostResult struct {
	Text   string `json:"text"`
	Posted bool   `json:"posted"`
	Error  string `json:"error,omitempty"`
}

type Poster struct {
	postURL string
	logger  logging.Logger

	// newClient is swapped in tests to avoid real OAuth1 signing against
	// the network.
	newClient func(cred *models.SocialCredentialSet) *http.Client
}

func NewPoster(logger logging.Logger) *Poster {
	return &Poster{
		postURL: defaultPostURL,
		logger:  logger,
		newClient: func(cred *models.SocialCredentialSet) *http.Client {
			config := oauth1.NewConfig(cred.APIKey, cred.APISecret)
			token := oauth1.NewToken(cred.AccessToken, cred.AccessTokenSecret)
			return config.Client(oauth1.NoContext, token)
		},
	}
}

// PostBatch publishes each text with the given credential set, collecting
// one outcome per message. The platform reports creation with 201.
func (p *Poster) PostBatch(ctx context.Context, cred *models.SocialCredentialSet, texts []string) []PostResult {
	client := p.newClient(cred)
	results := make([]PostResult, 0, len(texts))

	for _, text := range texts {
		result := PostResult{Text: text}
		if err := p.postOne(ctx, client, text); err != nil {
			result.Error = err.Error()
			p.logger.WithError(err).WithField("credential", cred.Name).
				Warn("Social post failed")
		} else {
			result.Posted = true
		}
		results = append(results, result)
	}
	return results
}

func (p *Poster) postOne(ctx context.Context, client *http.Client, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.postURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("social post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("social post rejected with status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// PostedCount reports how many results in a batch succeeded.
func PostedCount(results []PostResult) int {
	n := 0
	for _, r := range results {
		if r.Posted {
			n++
		}
	}
	return n
}
