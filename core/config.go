package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		AppName         string
		SecretKey       string
		WorkDir         string
		FrontendBaseURL string
		RollbarToken    string
		SendgridApiKey  string
		Timezone        *time.Location

		PasswordResetTimeoutDelta time.Duration

		defaultFromEmail string

		Server    ServerConfig
		Database  DatabaseConfig
		Storage   StorageConfig
		Redis     RedisConfig
		Scheduler SchedulerConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	StorageConfig struct {
		Backend       string // local | oss
		LocalRoot     string
		PublicBaseURL string
		MaxImageSize  int

		OSSEndpoint        string
		OSSAccessKeyID     string
		OSSAccessKeySecret string
		OSSBucket          string
	}

	RedisConfig struct {
		Addr         string
		Password     string
		DB           int
		DashboardTTL time.Duration
	}

	SchedulerConfig struct {
		ReconcileSpec string
	}
)

func (dbConf DatabaseConfig) Address() string {
	return dbConf.Host + ":" + dbConf.Port
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

// Today returns the current calendar day in the configured timezone.
func (conf *Config) Today() time.Time {
	loc := conf.Timezone
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// NewConfig loads the app configuration from the environment.
// `config/.env.<env>` is loaded first when present.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	workDir := Getwd()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Markaz")
	v.SetDefault("secretKey", "hq3-k8#c!0z=vy@t1l$w^r5(x+yjp2f&n6mbd9u_e4sa7g)o")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("timezone", "Asia/Tashkent")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "markaz")
	v.SetDefault("database.user", "markaz")
	v.SetDefault("database.password", "markaz")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localRoot", filepath.Join(workDir, "media"))
	v.SetDefault("storage.publicBaseURL", "/media")
	v.SetDefault("storage.maxImageSize", 512)
	v.SetDefault("storage.ossEndpoint", "")
	v.SetDefault("storage.ossAccessKeyID", "")
	v.SetDefault("storage.ossAccessKeySecret", "")
	v.SetDefault("storage.ossBucket", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dashboardTTL", time.Minute)

	v.SetDefault("scheduler.reconcileSpec", "0 3 * * *")

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// DEV_SERVER_ADDR, PROD_DATABASE_PASSWORD, ...
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	tz, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		log.Print(fmt.Errorf("config.timezone(%s): %v; falling back to UTC", v.GetString("timezone"), err))
		tz = time.UTC
	}

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		WorkDir:                   workDir,
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		Timezone:                  tz,
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		defaultFromEmail:          v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Storage: StorageConfig{
			Backend:            v.GetString("storage.backend"),
			LocalRoot:          v.GetString("storage.localRoot"),
			PublicBaseURL:      v.GetString("storage.publicBaseURL"),
			MaxImageSize:       v.GetInt("storage.maxImageSize"),
			OSSEndpoint:        v.GetString("storage.ossEndpoint"),
			OSSAccessKeyID:     v.GetString("storage.ossAccessKeyID"),
			OSSAccessKeySecret: v.GetString("storage.ossAccessKeySecret"),
			OSSBucket:          v.GetString("storage.ossBucket"),
		},
		Redis: RedisConfig{
			Addr:         v.GetString("redis.addr"),
			Password:     v.GetString("redis.password"),
			DB:           v.GetInt("redis.db"),
			DashboardTTL: v.GetDuration("redis.dashboardTTL"),
		},
		Scheduler: SchedulerConfig{
			ReconcileSpec: v.GetString("scheduler.reconcileSpec"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests. It does not read the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		Debug:                     true,
		TestMode:                  true,
		AppName:                   "Markaz",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:8080",
		Timezone:                  time.UTC,
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		defaultFromEmail:          "noreply@localhost",
		Server: ServerConfig{
			Host:                      "localhost",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ShutdownTimeout:           time.Second,
			DisableReqLogs:            true,
		},
		Storage: StorageConfig{
			Backend:       "local",
			PublicBaseURL: "/media",
			MaxImageSize:  512,
		},
	}
}
