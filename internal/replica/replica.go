// Package replica queries the wiki database replica for page statistics.
package replica

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/go-sql-driver/mysql"
)

// Config locates the replica and its credentials.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	// CnfPath is a my.cnf style file read when User/Password are empty.
	CnfPath string
	Timeout time.Duration
}

// Credentials returns User/Password, falling back to the [client] section
// of CnfPath.
func (c Config) Credentials() (string, string, error) {
	if c.User != "" && c.Password != "" {
		return c.User, c.Password, nil
	}
	if c.CnfPath == "" {
		return "", "", fmt.Errorf("replica: no credentials configured")
	}
	path, err := expandHome(c.CnfPath)
	if err != nil {
		return "", "", err
	}
	return ReadCnf(path)
}

// ReadCnf reads user and password from a replica.my.cnf file.
func ReadCnf(path string) (string, string, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true, Insensitive: true}, path)
	if err != nil {
		return "", "", fmt.Errorf("replica: read %s: %w", path, err)
	}
	sec := f.Section("client")
	user := unquote(sec.Key("user").String())
	pass := unquote(sec.Key("password").String())
	if user == "" || pass == "" {
		// Some files put the keys at top level.
		def := f.Section(ini.DefaultSection)
		user = firstNonEmpty(user, unquote(def.Key("user").String()))
		pass = firstNonEmpty(pass, unquote(def.Key("password").String()))
	}
	if user == "" || pass == "" {
		return "", "", fmt.Errorf("replica: %s has no user/password", path)
	}
	return user, pass, nil
}

// DSN builds a go-sql-driver/mysql data source name.
func (c Config) DSN() (string, error) {
	user, pass, err := c.Credentials()
	if err != nil {
		return "", err
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	mc := mysql.NewConfig()
	mc.User = user
	mc.Passwd = pass
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Host, port)
	mc.DBName = c.Database
	mc.Timeout = timeout
	mc.ReadTimeout = 5 * timeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	mc.MultiStatements = false
	return mc.FormatDSN(), nil
}

// Open connects to the replica.
func Open(ctx context.Context, c Config) (*sql.DB, error) {
	dsn, err := c.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("replica: connect %s: %w", c.Host, err)
	}
	return db, nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
