package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const defaultServerURL = "http://localhost:5000"

type (
	UnitSetting struct {
		Theory    float64 `mapstructure:"theory"`
		Practical float64 `mapstructure:"practical"`
	}

	// TermSetting overrides one entry of the built-in term table.
	TermSetting struct {
		Name  string        `mapstructure:"name"`
		Units []UnitSetting `mapstructure:"units"`
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       int
		Name       string
		User       string
		Password   string
		DisableTLS bool
		InMemory   bool
	}

	DevAPIConfig struct {
		Address         string
		ShutdownTimeout time.Duration
	}

	Config struct {
		Debug              bool
		TestMode           bool
		Env                string
		AppName            string
		Build              string
		SecretKey          string
		RollbarToken       string
		ServerURL          string // backend root; the API lives under {ServerURL}/api
		APIToken           string
		JWTExpirationDelta time.Duration
		FromEmail          string
		SendgridAPIKey     string
		NotifyEmails       []string // receive a notice whenever marks are locked
		Terms              []TermSetting
		DevAPI             DevAPIConfig
		Database           DatabaseConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	return dbc.Host + ":" + strconv.Itoa(dbc.Port)
}

// APIBaseURL returns the base URL every REST call is made against.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.ServerURL, "/") + "/api"
}

// DefaultFromEmail is the sender of every email; falls back to a local address named after the app.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.FromEmail); err == nil {
		if addr.Name == "" {
			addr.Name = c.AppName
		}
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
}

// NotifyAddresses parses NotifyEmails, skipping invalid entries.
func (c *Config) NotifyAddresses() []mail.Address {
	addrs := make([]mail.Address, 0, len(c.NotifyEmails))
	for _, s := range c.NotifyEmails {
		if addr, err := mail.ParseAddress(s); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file,
// an optional config file (`CONFIG_FILE`) and the environment, in that order of precedence.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "School Portal")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("serverURL", defaultServerURL)
	v.SetDefault("apiToken", "")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("fromEmail", "School Portal <noreply@localhost>")
	v.SetDefault("sendgridAPIKey", "")
	v.SetDefault("notifyEmails", []string{})
	v.SetDefault("devapi.address", ":5000")
	v.SetDefault("devapi.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "schoolportal")
	v.SetDefault("database.user", "schoolportal")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.inMemory", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading %s", cfgFile)
		}
	}

	v.AutomaticEnv()
	// prefixed vars win; SERVER_URL & API_TOKEN (no prefix) are the fallback
	_ = v.BindEnv("serverURL", "SERVER_URL")
	_ = v.BindEnv("apiToken", "API_TOKEN")

	conf := &Config{
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		Env:                env,
		AppName:            v.GetString("appName"),
		Build:              v.GetString("build"),
		SecretKey:          v.GetString("secretKey"),
		RollbarToken:       v.GetString("rollbarToken"),
		ServerURL:          v.GetString("serverURL"),
		APIToken:           v.GetString("apiToken"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		FromEmail:          v.GetString("fromEmail"),
		SendgridAPIKey:     v.GetString("sendgridAPIKey"),
		NotifyEmails:       v.GetStringSlice("notifyEmails"),
		DevAPI: DevAPIConfig{
			Address:         v.GetString("devapi.address"),
			ShutdownTimeout: v.GetDuration("devapi.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
			InMemory:   v.GetBool("database.inMemory"),
		},
	}
	if conf.ServerURL == "" {
		conf.ServerURL = defaultServerURL
	}
	if v.IsSet("terms") {
		if err := v.UnmarshalKey("terms", &conf.Terms); err != nil {
			return nil, errors.Wrap(err, "decoding terms")
		}
	}
	return conf, nil
}
