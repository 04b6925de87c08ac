package dispatch

import "fmt"

// Config defines command handling settings.
type Config struct {
	// Channel restricts handling to one channel; empty accepts all.
	Channel     string `json:"channel"`
	PublicSigil string `json:"public_sigil"`
	AdminSigil  string `json:"admin_sigil"`
	// AllowEveryone starts the bot without the voice requirement on track
	// commands. Operators can toggle it at runtime.
	AllowEveryone bool   `json:"allow_everyone"`
	DocURL        string `json:"doc_url"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PublicSigil == "" {
		c.PublicSigil = "#"
	}
	if c.AdminSigil == "" {
		c.AdminSigil = "~"
	}
}

// Validate checks that the sigils can be told apart.
func (c Config) Validate() error {
	if c.PublicSigil == "" || c.AdminSigil == "" {
		return fmt.Errorf("public_sigil and admin_sigil are required")
	}
	if c.PublicSigil == c.AdminSigil {
		return fmt.Errorf("public_sigil and admin_sigil must differ")
	}
	return nil
}
