package config

import (
	"os"
	"strings"
	"time"
)

// ClassifierConfig holds settings for the feedback classification model
type ClassifierConfig struct {
	APIKey    string `yaml:"-" json:"-"` // Never serialize
	BaseURL   string `yaml:"baseUrl" json:"baseUrl"`
	Model     string `yaml:"model" json:"model"`
	TimeoutMS int    `yaml:"timeoutMs" json:"timeoutMs"`

	// MaxRetries is the number of extra attempts after a rate-limited call
	MaxRetries int `yaml:"maxRetries" json:"maxRetries"`
	// InitialBackoffMS is the delay before the first retry; each retry doubles it
	InitialBackoffMS int `yaml:"initialBackoffMs" json:"initialBackoffMs"`
}

// DefaultClassifierConfig returns the default classifier configuration
func DefaultClassifierConfig() *ClassifierConfig {
	return &ClassifierConfig{
		APIKey:           os.Getenv("OPENAI_API_KEY"),
		BaseURL:          "https://api.openai.com/v1",
		Model:            "gpt-4o-mini",
		TimeoutMS:        30000,
		MaxRetries:       3,
		InitialBackoffMS: 2000,
	}
}

func (c *ClassifierConfig) applyEnv() {
	c.APIKey = getEnv("OPENAI_API_KEY", c.APIKey)
	c.BaseURL = getEnv("OPENAI_BASE_URL", c.BaseURL)
	c.Model = getEnv("OPENAI_MODEL", c.Model)
	c.TimeoutMS = getEnvInt("OPENAI_TIMEOUT_MS", c.TimeoutMS)
}

// IsEnabled returns true if the classifier API is configured
func (c *ClassifierConfig) IsEnabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c *ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c *ClassifierConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffMS) * time.Millisecond
}

// SheetsConfig holds the spreadsheet mirror target
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheetId"`
	SheetName       string `yaml:"sheetName"`
	ApplicationName string `yaml:"applicationName"`
	// Credentials is a path to a service account file or the JSON itself
	Credentials string `yaml:"-"`
}

func DefaultSheetsConfig() *SheetsConfig {
	return &SheetsConfig{
		SheetName:       "Sheet1",
		ApplicationName: "feedback-bot",
	}
}

func (c *SheetsConfig) applyEnv() {
	c.SpreadsheetID = getEnv("GOOGLE_SHEETS_SPREADSHEET_ID", c.SpreadsheetID)
	c.SheetName = getEnv("GOOGLE_SHEETS_SHEET_NAME", c.SheetName)
	c.ApplicationName = getEnv("GOOGLE_SHEETS_APPLICATION_NAME", c.ApplicationName)
	c.Credentials = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.Credentials)
	c.Credentials = getEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", c.Credentials)
}

// IsEnabled returns true if a target spreadsheet is configured
func (c *SheetsConfig) IsEnabled() bool {
	return strings.TrimSpace(c.SpreadsheetID) != ""
}
