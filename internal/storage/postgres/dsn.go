package postgres

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/config"
)

// DSN returns the configured DSN with an sslmode set. Supabase requires TLS;
// local databases usually have it off.
func DSN(cfg *config.DatabaseConfig) (string, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return "", fmt.Errorf("DB_DSN is required")
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", defaultSSLMode(u.Hostname()))
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}

	if strings.Contains(dsn, "sslmode=") {
		return dsn, nil
	}
	return dsn + " sslmode=" + defaultSSLMode(keywordValue(dsn, "host")), nil
}

func defaultSSLMode(host string) string {
	switch host {
	case "", "localhost", "127.0.0.1", "::1", "postgres", "db":
		return "disable"
	default:
		return "require"
	}
}

func keywordValue(dsn, key string) string {
	for _, part := range strings.Fields(dsn) {
		if k, v, ok := strings.Cut(part, "="); ok && k == key {
			return v
		}
	}
	return ""
}
