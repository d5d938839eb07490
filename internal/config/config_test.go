package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfigContent = `
server:
  host: "localhost"
  port: 8080
  mode: "test"
  read_timeout: 30s
  write_timeout: 30s
  idle_timeout: 60s
  max_header_bytes: 1048576

database:
  mysql:
    host: "localhost"
    port: 3306
    username: "test_user"
    password: "test_password"
    database: "labmaster_test"
    charset: "utf8mb4"
    parse_time: true
    loc: "Local"
    max_idle_conns: 10
    max_open_conns: 100
    conn_max_lifetime: 3600s
    conn_max_idle_time: 1800s
    log_level: "info"
  redis:
    host: "localhost"
    port: 6379
    password: ""
    database: 0
    pool_size: 10
    min_idle_conns: 5
    dial_timeout: 5s
    read_timeout: 3s
    write_timeout: 3s
    pool_timeout: 4s
    idle_timeout: 300s

log:
  level: "info"
  format: "json"
  output: "stdout"
  file_path: ""
  max_size: 100
  max_backups: 10
  max_age: 30
  compress: true
  caller: false

security:
  jwt:
    secret: "test-jwt-secret-key-at-least-32-characters"
    issuer: "labmaster"
    access_token_expire: 1h
    refresh_token_expire: 24h
  cors:
    enabled: true
    allow_all_origins: true

app:
  name: "labmaster"
  version: "1.0.0"
  env: "test"
`

// writeTestConfig 写入临时配置文件
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.test.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return tempDir
}

// TestLoadConfig 测试配置加载功能
func TestLoadConfig(t *testing.T) {
	tempDir := writeTestConfig(t, testConfigContent)

	config, err := LoadConfig(tempDir, "test")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("expected server host localhost, got %s", config.Server.Host)
	}
	if config.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", config.Server.Port)
	}
	if config.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout 30s, got %v", config.Server.ReadTimeout)
	}
	if config.Database.MySQL.Database != "labmaster_test" {
		t.Errorf("expected mysql database labmaster_test, got %s", config.Database.MySQL.Database)
	}
	if config.Security.JWT.AccessTokenExpire != time.Hour {
		t.Errorf("expected access token expire 1h, got %v", config.Security.JWT.AccessTokenExpire)
	}
	if config.App.Name != "labmaster" {
		t.Errorf("expected app name labmaster, got %s", config.App.Name)
	}
}

// TestLoadConfigValidation 测试配置验证
func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name: "short jwt secret",
			mutate: func(c string) string {
				return replaceLine(c, `    secret: "test-jwt-secret-key-at-least-32-characters"`, `    secret: "short"`)
			},
			wantErr: "jwt secret",
		},
		{
			name: "invalid server mode",
			mutate: func(c string) string {
				return replaceLine(c, `  mode: "test"`, `  mode: "weird"`)
			},
			wantErr: "invalid server mode",
		},
		{
			name: "invalid log level",
			mutate: func(c string) string {
				return replaceLine(c, `  level: "info"`, `  level: "verbose"`)
			},
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := writeTestConfig(t, tt.mutate(testConfigContent))
			_, err := LoadConfig(tempDir, "test")
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
		})
	}
}

// TestLoadConfigEnvOverride 测试环境变量覆盖
func TestLoadConfigEnvOverride(t *testing.T) {
	tempDir := writeTestConfig(t, testConfigContent)

	t.Setenv("LABMASTER_SERVER_PORT", "9090")
	t.Setenv("LABMASTER_MYSQL_HOST", "db.internal")

	config, err := LoadConfig(tempDir, "test")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Port != 9090 {
		t.Errorf("expected env override port 9090, got %d", config.Server.Port)
	}
	if config.Database.MySQL.Host != "db.internal" {
		t.Errorf("expected env override mysql host db.internal, got %s", config.Database.MySQL.Host)
	}
}

// replaceLine 替换配置内容中的一行
func replaceLine(content, old, new string) string {
	return strings.Replace(content, old, new, 1)
}
