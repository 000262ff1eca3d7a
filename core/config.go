package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	UploadsConfig struct {
		Backend     string // "local" | "b2"
		Dir         string
		B2AccountID string
		B2AppKey    string
		B2Bucket    string
	}

	Config struct {
		AppName         string
		Env             string // DEV (default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		SecretKey       []byte
		WorkDir         string
		FrontendBaseURL string

		DefaultFromName    string
		DefaultFromAddress string
		SendgridApiKey     string
		RollbarToken       string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Uploads  UploadsConfig
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddress}
}

func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Conf is the app-wide configuration, loaded once at startup.
var Conf *Config

func init() {
	Conf = NewConfig()
}

// NewConfig loads the app configuration from the environment;
// `config/.env.<env>` is loaded first if it exists.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "LearnTrack")
	conf.SetDefault("secretKey", "h0w$-dyt)renb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromName", "")
	conf.SetDefault("defaultFromAddress", "noreply@localhost")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("serverHost", "")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseName", "learntrack")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseDisableTLS", true)
	conf.SetDefault("uploadsBackend", "local")
	conf.SetDefault("uploadsDir", "uploads")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:            conf.GetString("appName"),
		Env:                env,
		Build:              conf.GetString("build"),
		Debug:              conf.GetBool("debug"),
		TestMode:           conf.GetBool("testMode"),
		SecretKey:          []byte(conf.GetString("secretKey")),
		WorkDir:            wd,
		FrontendBaseURL:    conf.GetString("frontendBaseURL"),
		DefaultFromName:    conf.GetString("defaultFromName"),
		DefaultFromAddress: conf.GetString("defaultFromAddress"),
		SendgridApiKey:     conf.GetString("sendgridApiKey"),
		RollbarToken:       conf.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetString("serverPort"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Name:          conf.GetString("databaseName"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			DisableTLS:    conf.GetBool("databaseDisableTLS"),
		},
		Uploads: UploadsConfig{
			Backend:     conf.GetString("uploadsBackend"),
			Dir:         conf.GetString("uploadsDir"),
			B2AccountID: conf.GetString("b2AccountId"),
			B2AppKey:    conf.GetString("b2AppKey"),
			B2Bucket:    conf.GetString("b2Bucket"),
		},
	}
}
