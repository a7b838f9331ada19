// Package config provides configuration parsing and validation for the notifier service.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Email provider names accepted by EmailPrimary and EmailFallback.
const (
	ProviderSES    = "ses"
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// Config holds all configuration parameters for the notifier service.
type Config struct {
	KafkaBrokers        string
	TriggerActionsTopic string
	ConsumerGroupID     string
	PostgresDSN         string
	RedisAddr           string
	Workers             int

	// BaseURL is the alerting UI root used for incident and rule links.
	BaseURL string
	// Brand prefixes attachment footers, e.g. "{Brand} Incident | Aug 20".
	Brand string

	EmailFrom         string
	EmailPrimary      string
	EmailFallback     string // comma-separated provider names
	AWSRegion         string
	ResendAPIKey      string
	SMTPHost          string
	SMTPPort          string
	SMTPUser          string
	SMTPPassword      string
	UnsubscribeSecret string

	SlackBaseURL       string
	PagerDutyEventsURL string
	HTTPTimeout        time.Duration
	DirectoryCacheTTL  time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.TriggerActionsTopic == "" {
		return fmt.Errorf("trigger-actions-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if err := validateURL("base-url", c.BaseURL); err != nil {
		return err
	}
	if c.Brand == "" {
		return fmt.Errorf("brand cannot be empty")
	}
	if !strings.Contains(c.EmailFrom, "@") {
		return fmt.Errorf("email-from must be an email address, got %q", c.EmailFrom)
	}
	if !validProvider(c.EmailPrimary) {
		return fmt.Errorf("email-primary must be one of ses, resend, smtp, got %q", c.EmailPrimary)
	}
	for _, name := range c.EmailFallbacks() {
		if !validProvider(name) {
			return fmt.Errorf("email-fallback contains unknown provider %q", name)
		}
	}
	if c.SlackBaseURL != "" {
		if err := validateURL("slack-base-url", c.SlackBaseURL); err != nil {
			return err
		}
	}
	if c.PagerDutyEventsURL != "" {
		if err := validateURL("pagerduty-events-url", c.PagerDutyEventsURL); err != nil {
			return err
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http-timeout must be positive, got %v", c.HTTPTimeout)
	}
	if c.DirectoryCacheTTL <= 0 {
		return fmt.Errorf("directory-cache-ttl must be positive, got %v", c.DirectoryCacheTTL)
	}
	return nil
}

// EmailFallbacks returns the parsed fallback provider names.
func (c *Config) EmailFallbacks() []string {
	var names []string
	for _, part := range strings.Split(c.EmailFallback, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func validProvider(name string) bool {
	switch name {
	case ProviderSES, ProviderResend, ProviderSMTP:
		return true
	}
	return false
}

func validateURL(flagName, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", flagName, raw)
	}
	return nil
}
