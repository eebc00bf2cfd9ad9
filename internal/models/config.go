package models

// EmailTransportConfig is the process-wide outbound mail configuration.
// Exactly one logical record exists; it is loaded at startup and updated
// in place through the settings API.
type EmailTransportConfig struct {
	Mode          string `json:"mode"` // "local" or "authenticated"
	Host          string `json:"host"`
	Port          string `json:"port"`
	User          string `json:"user"`
	Secret        string `json:"-"`
	SenderAddress string `json:"sender_address"`
	SenderName    string `json:"sender_name"`
}

// SocialCredentialSet is one named set of social-posting credentials.
// Sets are appended and deleted, never edited.
type SocialCredentialSet struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	APIKey            string `json:"-"`
	APISecret         string `json:"-"`
	AccessToken       string `json:"-"`
	AccessTokenSecret string `json:"-"`
}
