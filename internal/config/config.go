package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// avatarHeadroomMB is extra body allowance beyond the archive cap so a
// full-size phone photo plus multipart framing always fits the request.
const avatarHeadroomMB = 16

// Config holds runtime configuration values for the portal API.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	JWTSecret           string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	AvatarFolder        string
	SourceCodeFolder    string
	MailEndpoint        string
	MailBearerToken     string
	EventChannelBase    string
	LoginPath           string
	CORSAllowOrigins    string
	MaxArchiveSizeMB    int
}

// BodyLimit returns the request body cap in bytes. It must stay above the
// archive cap or oversized archives would be refused at the transport instead
// of reaching the size check that reports them properly.
func (c Config) BodyLimit() int {
	maxArchive := c.MaxArchiveSizeMB
	if maxArchive <= 0 {
		maxArchive = 25
	}
	return (maxArchive + avatarHeadroomMB) * 1024 * 1024
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Applicant Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("storage.avatar_folder", "avatars")
	v.SetDefault("storage.source_code_folder", "source-code")
	v.SetDefault("events.channel_base", "portal")
	v.SetDefault("auth.login_path", "/login")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("max_archive_size_mb", 25)

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		AvatarFolder:        v.GetString("storage.avatar_folder"),
		SourceCodeFolder:    v.GetString("storage.source_code_folder"),
		MailEndpoint:        v.GetString("mail.endpoint"),
		MailBearerToken:     v.GetString("mail.bearer_token"),
		EventChannelBase:    v.GetString("events.channel_base"),
		LoginPath:           v.GetString("auth.login_path"),
		CORSAllowOrigins:    v.GetString("cors.allow_origins"),
		MaxArchiveSizeMB:    v.GetInt("max_archive_size_mb"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxArchiveSizeMB <= 0 {
		cfg.MaxArchiveSizeMB = 25
	}

	return cfg, nil
}
