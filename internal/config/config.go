package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Europe/Moscow"
	configPathEnv   = "AUTOPUBLISHER_CONFIG"

	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramOwnerEnv = "TELEGRAM_OWNER_ID"
	mailLoginEnv     = "MAIL_LOGIN"
	mailPasswordEnv  = "MAIL_PASSWORD"
	siteUsernameEnv  = "SITE_USERNAME"
	sitePasswordEnv  = "SITE_PASSWORD"
	logLevelEnv      = "LOG_LEVEL"
)

// Telegram transport modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds every setting of the process. It is loaded once and passed
// by value afterwards.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Mail     MailConfig     `yaml:"mail"`
	Site     SiteConfig     `yaml:"site"`
	Tools    ToolsConfig    `yaml:"tools"`
	Storage  StorageConfig  `yaml:"storage"`
	Limits   LimitsConfig   `yaml:"limits"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Speller  SpellerConfig  `yaml:"speller"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig describes the bot and how it receives updates.
type TelegramConfig struct {
	BotToken    string        `yaml:"botToken"`
	OwnerID     int64         `yaml:"ownerId"`
	APIURL      string        `yaml:"apiUrl"`
	Mode        string        `yaml:"mode"`
	PollTimeout time.Duration `yaml:"pollTimeout"`
	HTTPTimeout time.Duration `yaml:"httpTimeout"`
	Webhook     WebhookConfig `yaml:"webhook"`
}

// WebhookConfig is used in webhook mode only.
type WebhookConfig struct {
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
	PublicURL string `yaml:"publicUrl"`
	Secret    string `yaml:"secret"`
}

// MailConfig holds the IMAP account and the two watched senders.
type MailConfig struct {
	Server             string `yaml:"server"`
	Login              string `yaml:"login"`
	Password           string `yaml:"password"`
	TLS                bool   `yaml:"tls"`
	Mailbox            string `yaml:"mailbox"`
	From               string `yaml:"from"`
	FromLabel          string `yaml:"fromLabel"`
	AlternateFrom      string `yaml:"alternateFrom"`
	AlternateFromLabel string `yaml:"alternateFromLabel"`
}

// SiteConfig describes the Drupal site.
type SiteConfig struct {
	URL           string        `yaml:"url"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	WaitTimeout   time.Duration `yaml:"waitTimeout"`
	PollInterval  time.Duration `yaml:"pollInterval"`
	LoginAttempts int           `yaml:"loginAttempts"`
	HTTPTimeout   time.Duration `yaml:"httpTimeout"`
}

// ToolsConfig names the external programs.
type ToolsConfig struct {
	Soffice     string `yaml:"soffice"`
	ImageMagick string `yaml:"imagemagick"`
	Unrar       string `yaml:"unrar"`
}

// StorageConfig locates scratch folders: <tmpDir>/<folderPrefix><suffix>.
type StorageConfig struct {
	TmpDir       string `yaml:"tmpDir"`
	FolderPrefix string `yaml:"folderPrefix"`
}

type LimitsConfig struct {
	NewsImageMaxMB   float64 `yaml:"newsImageMaxMB"`
	BannerImageMaxMB float64 `yaml:"bannerImageMaxMB"`
	WideSide         int     `yaml:"wideSide"`
	MessageLimit     int     `yaml:"messageLimit"`
}

// ScheduleConfig controls rasterization and the monthly publishing window.
type ScheduleConfig struct {
	ImageFormat  string         `yaml:"imageFormat"`
	BlockFromDay int            `yaml:"blockFromDay"`
	BlockToDay   int            `yaml:"blockToDay"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the schedule timezone.
func (s ScheduleConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

type SpellerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// WatchConfig enables the unread-mail reminder; a zero interval disables it.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path, or at $AUTOPUBLISHER_CONFIG when path is
// empty, on top of the defaults and applies environment overrides. Keys
// missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	cfg.bindTimezone()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramOwnerEnv); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", telegramOwnerEnv, err)
		}
		c.Telegram.OwnerID = id
	}
	if v := os.Getenv(mailLoginEnv); v != "" {
		c.Mail.Login = v
	}
	if v := os.Getenv(mailPasswordEnv); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv(siteUsernameEnv); v != "" {
		c.Site.Username = v
	}
	if v := os.Getenv(sitePasswordEnv); v != "" {
		c.Site.Password = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) bindTimezone() {
	tz := c.Schedule.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Schedule.location = loc
}

// Validate reports settings the bot cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram.botToken is required"))
	}
	if c.Telegram.OwnerID == 0 {
		errs = append(errs, errors.New("telegram.ownerId is required"))
	}
	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.Webhook.PublicURL == "" {
			errs = append(errs, errors.New("telegram.webhook.publicUrl is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("telegram.mode %q is not one of %s, %s", c.Telegram.Mode, ModePolling, ModeWebhook))
	}
	if c.Mail.Server == "" || c.Mail.From == "" {
		errs = append(errs, errors.New("mail.server and mail.from are required"))
	}
	if c.Site.URL == "" {
		errs = append(errs, errors.New("site.url is required"))
	}
	if c.Schedule.BlockFromDay > c.Schedule.BlockToDay {
		errs = append(errs, errors.New("schedule.blockFromDay is after schedule.blockToDay"))
	}
	return errors.Join(errs...)
}

func defaultConfig() Config {
	return Config{
		Telegram: TelegramConfig{
			Mode:        ModePolling,
			PollTimeout: 30 * time.Second,
			HTTPTimeout: 60 * time.Second,
			Webhook:     WebhookConfig{Listen: ":8080", Path: "/telegram"},
		},
		Mail: MailConfig{
			TLS:                true,
			Mailbox:            "INBOX",
			FromLabel:          "Кошелева",
			AlternateFromLabel: "меня",
		},
		Site: SiteConfig{
			WaitTimeout:   20 * time.Second,
			PollInterval:  500 * time.Millisecond,
			LoginAttempts: 3,
			HTTPTimeout:   60 * time.Second,
		},
		Tools: ToolsConfig{Soffice: "soffice", ImageMagick: "convert", Unrar: "unrar"},
		Storage: StorageConfig{
			TmpDir:       os.TempDir(),
			FolderPrefix: "autopublisher_",
		},
		Limits: LimitsConfig{
			NewsImageMaxMB:   1.5,
			BannerImageMaxMB: 1,
			WideSide:         1024,
			MessageLimit:     4096,
		},
		Schedule: ScheduleConfig{
			ImageFormat:  "png",
			BlockFromDay: 21,
			BlockToDay:   31,
			Timezone:     defaultTimezone,
		},
		Speller: SpellerConfig{
			Enabled:  true,
			Endpoint: "https://speller.yandex.net/services/spellservice.json/checkText",
			Timeout:  10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
