package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Command modes understood by Validate.
const (
	ModeStore    = "store"
	ModeServe    = "serve"
	ModeExtract  = "extract"
	ModeNotion   = "notion"
	ModeTemporal = "temporal"
)

// Validate checks the keys a command needs. It reports every problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	default:
		problems = append(problems, "store.driver must be postgres or sqlite")
	}

	switch mode {
	case ModeServe, ModeExtract:
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if t := c.Extract.ConfidenceThreshold; t <= 0 || t > 1 {
			problems = append(problems, "extract.confidence_threshold must be in (0, 1]")
		}
		if c.Clarify.MaxQuestions < 1 {
			problems = append(problems, "clarify.max_questions must be at least 1")
		}
		if c.Messaging.Transport == "webhook" && c.Messaging.WebhookURL == "" {
			problems = append(problems, "messaging.webhook_url is required for the webhook transport")
		}
		if c.Lifecycle.Dispatcher == "temporal" && c.Temporal.HostPort == "" {
			problems = append(problems, "temporal.host_port is required for the temporal dispatcher")
		}
	case ModeNotion:
		if c.Notion.Token == "" || c.Notion.MentorDB == "" {
			problems = append(problems, "notion.token and notion.mentor_db are required")
		}
	case ModeTemporal:
		if c.Temporal.HostPort == "" || c.Temporal.TaskQueue == "" {
			problems = append(problems, "temporal.host_port and temporal.task_queue are required")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}
