package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env       string `envconfig:"ENV" default:"local"`
	HTTPHost  string `envconfig:"HTTP_HOST" default:""`
	HTTPPort  string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	SecretKey string `envconfig:"SECRET_KEY" required:"true"`
	// CORSOrigins is a comma separated list of allowed origins.
	CORSOrigins  []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	TokenExpiry  time.Duration `envconfig:"TOKEN_EXPIRY" default:"192h"`
	RateLimitRPS float64       `envconfig:"RATE_LIMIT_RPS" default:"0"`
}

type ACLEnv struct {
	// StorageRoot is the directory tree whose ACLs this service manages.
	// Every request path resolves inside it.
	StorageRoot    string        `envconfig:"STORAGE_ROOT" default:"/data"`
	CommandTimeout time.Duration `envconfig:"COMMAND_TIMEOUT" default:"30s"`
}

type StoreEnv struct {
	DatabasePath string `envconfig:"DATABASE_PATH" default:"aclgate.db"`
}

type AuditEnv struct {
	Type    string `envconfig:"AUDIT_STORE" default:"local"`
	BaseDir string `envconfig:"AUDIT_DIR" default:".aclgate/audit"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"AUDIT_S3_BUCKET"`
	S3Prefix string `envconfig:"AUDIT_S3_PREFIX" default:"aclgate/"`
	S3Region string `envconfig:"AUDIT_S3_REGION" default:"ap-northeast-1"`
}

type LDAPEnv struct {
	// Addr is the ldap:// or ldaps:// URL of the directory server. Empty
	// disables LDAP login.
	Addr           string `envconfig:"LDAP_ADDR"`
	BaseDN         string `envconfig:"LDAP_BASE_DN" default:"dc=example,dc=com"`
	UserDNTemplate string `envconfig:"LDAP_USER_DN_TEMPLATE" default:"uid={username},ou={institution},dc=example,dc=com"`
	StartTLS       bool   `envconfig:"LDAP_START_TLS" default:"false"`
	RoleMapPath    string `envconfig:"ROLE_MAP_PATH"`
}

type FilesEnv struct {
	AllowedExtensions []string `envconfig:"ALLOWED_EXTENSIONS" default:"csv,txt,pdf,jpg,jpeg,png"`
	MaxPreviewMB      int64    `envconfig:"MAX_PREVIEW_MB" default:"100"`
}

type Env struct {
	BaseEnv
	ACLEnv
	StoreEnv
	AuditEnv
	LDAPEnv
	FilesEnv
}

const namespace = "ACLGATE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *FilesEnv) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range e.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
