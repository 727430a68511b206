package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string        `yaml:"env" env:"ENV" env-default:"local"`
	FrontendURL string        `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000/"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env:"CACHE_TTL" env-default:"30s"`

	HTTPServer HTTPServer `yaml:"http_server"`
	Mongo      Mongo      `yaml:"mongo"`
	Redis      Redis      `yaml:"redis"`
	JWT        JWT        `yaml:"jwt"`
	WhatsApp   WhatsApp   `yaml:"whatsapp"`
	SMS        SMS        `yaml:"sms"`
	Firebase   Firebase   `yaml:"firebase"`
	OSS        OSS        `yaml:"oss"`
	SMTP       SMTP       `yaml:"smtp"`
	Ticket     Ticket     `yaml:"ticket"`
	Jobs       Jobs       `yaml:"jobs"`
	Limits     Limits     `yaml:"limits"`
	Admin      Admin      `yaml:"admin"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	CORSOrigins []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Mongo struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://127.0.0.1:27017/?replicaSet=rs0"`
	Database string `yaml:"database" env:"MONGO_DB" env-default:"eventhub"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type JWT struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"168h"`
}

type WhatsApp struct {
	BaseURL       string `yaml:"base_url" env:"WHATSAPP_BASE_URL" env-default:"https://graph.facebook.com/v19.0"`
	PhoneNumberID string `yaml:"phone_number_id" env:"WHATSAPP_PHONE_NUMBER_ID"`
	AccessToken   string `yaml:"access_token" env:"WHATSAPP_ACCESS_TOKEN"`
	Template      string `yaml:"template" env:"WHATSAPP_TEMPLATE" env-default:"event_booking_en"`
	Language      string `yaml:"language" env:"WHATSAPP_LANGUAGE" env-default:"en"`
}

type SMS struct {
	BaseURL  string `yaml:"base_url" env:"SMS_BASE_URL" env-default:"http://control.bestsms.co.in/api/sendhttp.php"`
	AuthKey  string `yaml:"auth_key" env:"SMS_AUTH_KEY"`
	Sender   string `yaml:"sender" env:"SMS_SENDER"`
	Template string `yaml:"template" env:"SMS_TEMPLATE" env-default:"Dear User, your OTP is %s. It is valid for 10 minutes. Do not share it with anyone."`
}

type Firebase struct {
	CredentialsFile string `yaml:"credentials_file" env:"FIREBASE_CREDENTIALS"`
}

type OSS struct {
	Endpoint        string `yaml:"endpoint" env:"OSS_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"OSS_ACCESS_KEY_ID"`
	AccessKeySecret string `yaml:"access_key_secret" env:"OSS_ACCESS_KEY_SECRET"`
	Bucket          string `yaml:"bucket" env:"OSS_BUCKET"`
	Folder          string `yaml:"folder" env:"OSS_FOLDER" env-default:"eventhub"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	Inbox    string `yaml:"inbox" env:"CONTACT_INBOX"`
}

type Ticket struct {
	LogoPath string `yaml:"logo_path" env:"TICKET_LOGO_PATH" env-default:"assets/logo.png"`
}

type Jobs struct {
	ReconcileSchedule string `yaml:"reconcile_schedule" env:"RECONCILE_SCHEDULE" env-default:"@every 1h"`
}

// Admin seeds the first admin account at startup when Email is set.
type Admin struct {
	Name     string `yaml:"name" env:"ADMIN_NAME" env-default:"Administrator"`
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Mobile   string `yaml:"mobile" env:"ADMIN_MOBILE"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

type Limits struct {
	DailyQuota int `yaml:"daily_quota" env:"DAILY_QUOTA" env-default:"2000"`
}

// Load reads .env when present, then CONFIG_PATH (YAML) if set, then the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
