package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"SelfEarnBot/internal/domain"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "SELFBOT_CONFIG"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig              `yaml:"logging"`
	Database      DatabaseConfig             `yaml:"database"`
	Scheduler     SchedulerConfig            `yaml:"scheduler"`
	Budget        BudgetConfig               `yaml:"budget"`
	Selection     SelectionConfig            `yaml:"selection"`
	Publishing    PublishingConfig           `yaml:"publishing"`
	Learning      LearningConfig             `yaml:"learning"`
	Economics     map[string]EconomicsConfig `yaml:"economics"`
	Providers     map[string]ProviderConfig  `yaml:"providers"`
	Quality       QualityConfig              `yaml:"quality"`
	Sources       []SourceConfig             `yaml:"sources"`
	Notifications NotificationConfig         `yaml:"notifications"`
	Events        EventsConfig               `yaml:"events"`
	Archive       ArchiveConfig              `yaml:"archive"`
	HTTP          HTTPConfig                 `yaml:"http"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the durable store. Driver is "sqlite" or "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines how often cycles run.
type SchedulerConfig struct {
	Interval  time.Duration  `yaml:"interval"`
	MaxCycles int            `yaml:"maxCycles"`
	Timezone  string         `yaml:"timezone"`
	location  *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// BudgetConfig seeds the ledger and drives reinvestment.
type BudgetConfig struct {
	Initial            float64 `yaml:"initial"`
	AutoReinvest       bool    `yaml:"autoReinvest"`
	ReinvestPercentage float64 `yaml:"reinvestPercentage"`
}

// SelectionConfig bounds which opportunities are admitted each cycle.
type SelectionConfig struct {
	MinOpportunityScore float64 `yaml:"minOpportunityScore"`
	MaxPerCycle         int     `yaml:"maxPerCycle"`
}

// PublishingConfig gates publishing after generation.
type PublishingConfig struct {
	AutoPublish     bool `yaml:"autoPublish"`
	RequireApproval bool `yaml:"requireApproval"`
}

// LearningConfig controls how often the optimizer feeds back into selection.
type LearningConfig struct {
	Enabled       bool `yaml:"enabled"`
	OptimizeEvery int  `yaml:"optimizeEvery"`
}

// EconomicsConfig is the expected revenue and AI cost range for a category.
type EconomicsConfig struct {
	RevenueMin float64 `yaml:"revenueMin"`
	RevenueMax float64 `yaml:"revenueMax"`
	AICostMin  float64 `yaml:"aiCostMin"`
	AICostMax  float64 `yaml:"aiCostMax"`
}

// ProviderConfig defines how to contact an OpenAI-compatible completion API.
type ProviderConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	PricePer1K   float64 `yaml:"pricePer1k"`
	SystemPrompt string  `yaml:"systemPrompt"`
}

// QualityConfig describes the optional remote quality assessor.
type QualityConfig struct {
	AssessorURL string `yaml:"assessorUrl"`
	APIKey      string `yaml:"apiKey"`
}

// SourceConfig describes a single discovery source with its scanner strategy.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	URLs    []string          `yaml:"urls"`
	Options map[string]string `yaml:"options"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// EventsConfig mirrors outcome records to Kafka when brokers are set.
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// ArchiveConfig uploads cycle summaries to S3 when a bucket is set.
type ArchiveConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// HTTPConfig enables the ops endpoints when Addr is set.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type envOverrides struct {
	LogLevel        *string        `env:"SELFBOT_LOG_LEVEL"`
	DatabaseDriver  *string        `env:"SELFBOT_DATABASE_DRIVER"`
	DatabaseDSN     *string        `env:"DATABASE_DSN"`
	Interval        *time.Duration `env:"SELFBOT_SCAN_INTERVAL"`
	Timezone        *string        `env:"SELFBOT_TIMEZONE"`
	InitialBudget   *float64       `env:"SELFBOT_INITIAL_BUDGET"`
	AutoReinvest    *bool          `env:"SELFBOT_AUTO_REINVEST"`
	ReinvestPct     *float64       `env:"SELFBOT_REINVEST_PERCENTAGE"`
	MinScore        *float64       `env:"SELFBOT_MIN_OPPORTUNITY_SCORE"`
	MaxPerCycle     *int           `env:"SELFBOT_MAX_OPPORTUNITIES_PER_CYCLE"`
	AutoPublish     *bool          `env:"SELFBOT_AUTO_PUBLISH"`
	RequireApproval *bool          `env:"SELFBOT_REQUIRE_APPROVAL"`
	EnableLearning  *bool          `env:"SELFBOT_ENABLE_LEARNING"`
	OpenAIKey       *string        `env:"OPENAI_API_KEY"`
	MistralKey      *string        `env:"MISTRAL_API_KEY"`
	TelegramToken   *string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID  *string        `env:"TELEGRAM_CHAT_ID"`
	HTTPAddr        *string        `env:"SELFBOT_HTTP_ADDR"`
}

// Load reads YAML configuration (if present) over the defaults and applies
// environment overrides. It does not validate; call Validate before use.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decodeFile(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg, nil
}

type providerPatch struct {
	Endpoint     *string  `yaml:"endpoint"`
	Model        *string  `yaml:"model"`
	APIKey       *string  `yaml:"apiKey"`
	PricePer1K   *float64 `yaml:"pricePer1k"`
	SystemPrompt *string  `yaml:"systemPrompt"`
}

type economicsPatch struct {
	RevenueMin *float64 `yaml:"revenueMin"`
	RevenueMax *float64 `yaml:"revenueMax"`
	AICostMin  *float64 `yaml:"aiCostMin"`
	AICostMax  *float64 `yaml:"aiCostMax"`
}

type mapPatches struct {
	Economics map[string]economicsPatch `yaml:"economics"`
	Providers map[string]providerPatch  `yaml:"providers"`
}

// decodeFile overlays raw YAML on cfg. Struct fields absent from the file
// keep their value; map entries are merged field by field so a partial
// provider or economics block keeps the remaining defaults.
func decodeFile(raw []byte, cfg *Config) error {
	economics, providers := cfg.Economics, cfg.Providers
	cfg.Economics, cfg.Providers = nil, nil

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return err
	}
	var patches mapPatches
	if err := yaml.Unmarshal(raw, &patches); err != nil {
		return err
	}

	cfg.Economics = mergeEconomics(economics, patches.Economics)
	cfg.Providers = mergeProviders(providers, patches.Providers)
	return nil
}

func mergeEconomics(base map[string]EconomicsConfig, patches map[string]economicsPatch) map[string]EconomicsConfig {
	out := make(map[string]EconomicsConfig, len(base)+len(patches))
	for k, v := range base {
		out[k] = v
	}
	for k, p := range patches {
		e := out[k]
		setFloat(&e.RevenueMin, p.RevenueMin)
		setFloat(&e.RevenueMax, p.RevenueMax)
		setFloat(&e.AICostMin, p.AICostMin)
		setFloat(&e.AICostMax, p.AICostMax)
		out[k] = e
	}
	return out
}

func mergeProviders(base map[string]ProviderConfig, patches map[string]providerPatch) map[string]ProviderConfig {
	out := make(map[string]ProviderConfig, len(base)+len(patches))
	for k, v := range base {
		out[k] = v
	}
	for k, p := range patches {
		pc := out[k]
		setString(&pc.Endpoint, p.Endpoint)
		setString(&pc.Model, p.Model)
		setString(&pc.APIKey, p.APIKey)
		setString(&pc.SystemPrompt, p.SystemPrompt)
		setFloat(&pc.PricePer1K, p.PricePer1K)
		out[k] = pc
	}
	return out
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}

	setString(&c.Logging.Level, o.LogLevel)
	setString(&c.Database.Driver, o.DatabaseDriver)
	setString(&c.Database.DSN, o.DatabaseDSN)
	setString(&c.HTTP.Addr, o.HTTPAddr)
	setString(&c.Scheduler.Timezone, o.Timezone)
	setString(&c.Notifications.Telegram.BotToken, o.TelegramToken)
	setString(&c.Notifications.Telegram.ChatID, o.TelegramChatID)

	if o.Interval != nil {
		c.Scheduler.Interval = *o.Interval
	}
	if o.InitialBudget != nil {
		c.Budget.Initial = *o.InitialBudget
	}
	if o.AutoReinvest != nil {
		c.Budget.AutoReinvest = *o.AutoReinvest
	}
	if o.ReinvestPct != nil {
		c.Budget.ReinvestPercentage = *o.ReinvestPct
	}
	if o.MinScore != nil {
		c.Selection.MinOpportunityScore = *o.MinScore
	}
	if o.MaxPerCycle != nil {
		c.Selection.MaxPerCycle = *o.MaxPerCycle
	}
	if o.AutoPublish != nil {
		c.Publishing.AutoPublish = *o.AutoPublish
	}
	if o.RequireApproval != nil {
		c.Publishing.RequireApproval = *o.RequireApproval
	}
	if o.EnableLearning != nil {
		c.Learning.Enabled = *o.EnableLearning
	}

	c.setProviderKey("openai", o.OpenAIKey)
	c.setProviderKey("mistral", o.MistralKey)
	return nil
}

func (c *Config) setProviderKey(name string, key *string) {
	if key == nil {
		return
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	p := c.Providers[name]
	p.APIKey = *key
	c.Providers[name] = p
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("config: unknown timezone %s: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

// Validate reports every setting that would make the bot misbehave.
func (c Config) Validate() error {
	var problems []string

	if c.Budget.Initial < 0 || math.IsNaN(c.Budget.Initial) || math.IsInf(c.Budget.Initial, 0) {
		problems = append(problems, "budget.initial must be a non-negative finite amount")
	}
	if c.Budget.ReinvestPercentage < 0 || c.Budget.ReinvestPercentage > 100 {
		problems = append(problems, "budget.reinvestPercentage must be between 0 and 100")
	}
	if c.Selection.MinOpportunityScore < 0 || c.Selection.MinOpportunityScore > 1 {
		problems = append(problems, "selection.minOpportunityScore must be between 0 and 1")
	}
	if c.Selection.MaxPerCycle <= 0 {
		problems = append(problems, "selection.maxPerCycle must be positive")
	}
	if c.Scheduler.Interval <= 0 {
		problems = append(problems, "scheduler.interval must be positive")
	}
	if c.Scheduler.MaxCycles < 0 {
		problems = append(problems, "scheduler.maxCycles must be non-negative")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "memory":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
	}

	categories := make([]string, 0, len(c.Economics))
	for name := range c.Economics {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, name := range categories {
		e := c.Economics[name]
		if e.AICostMin < 0 || e.AICostMax < e.AICostMin {
			problems = append(problems, fmt.Sprintf("economics.%s: invalid ai cost range", name))
		}
		if e.RevenueMin < 0 || e.RevenueMax < e.RevenueMin {
			problems = append(problems, fmt.Sprintf("economics.%s: invalid revenue range", name))
		}
	}

	providers := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	for _, name := range providers {
		p := c.Providers[name]
		if p.Endpoint == "" {
			problems = append(problems, fmt.Sprintf("providers.%s: endpoint is required", name))
		}
		if p.Model == "" {
			problems = append(problems, fmt.Sprintf("providers.%s: model is required", name))
		}
	}

	if len(problems) > 0 {
		return &domain.ConfigValidationError{Problems: problems}
	}
	return nil
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "data/selfbot.db"},
		Scheduler: SchedulerConfig{Interval: 5 * time.Minute, Timezone: defaultTimezone, location: tz},
		Budget: BudgetConfig{
			Initial:            10.00,
			AutoReinvest:       true,
			ReinvestPercentage: 50,
		},
		Selection:  SelectionConfig{MinOpportunityScore: 0.7, MaxPerCycle: 5},
		Publishing: PublishingConfig{AutoPublish: false, RequireApproval: true},
		Learning:   LearningConfig{Enabled: true, OptimizeEvery: 5},
		Economics: map[string]EconomicsConfig{
			string(domain.CategoryArticle): {RevenueMin: 5, RevenueMax: 50, AICostMin: 0.01, AICostMax: 0.10},
			string(domain.CategoryCode):    {RevenueMin: 10, RevenueMax: 100, AICostMin: 0.02, AICostMax: 0.20},
			string(domain.CategorySEO):     {RevenueMin: 3, RevenueMax: 30, AICostMin: 0.01, AICostMax: 0.08},
		},
		Providers: map[string]ProviderConfig{
			"openai": {
				Endpoint:   "https://api.openai.com/v1/chat/completions",
				Model:      "gpt-4o-mini",
				PricePer1K: 0.0015,
			},
			"mistral": {
				Endpoint:   "https://api.mistral.ai/v1/chat/completions",
				Model:      "mistral-tiny",
				PricePer1K: 0.0002,
			},
		},
		Sources: []SourceConfig{
			{Name: "demo", Scanner: "demo"},
		},
	}
}
