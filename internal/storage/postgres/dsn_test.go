package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/config"
)

func TestDSN(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"supabase url", "postgresql://postgres:pw@db.abc.supabase.co:5432/postgres", "postgresql://postgres:pw@db.abc.supabase.co:5432/postgres?sslmode=require"},
		{"local url", "postgres://u:p@localhost:5432/licita", "postgres://u:p@localhost:5432/licita?sslmode=disable"},
		{"explicit mode kept", "postgres://u:p@db.example.com/licita?sslmode=verify-full", "postgres://u:p@db.example.com/licita?sslmode=verify-full"},
		{"keyword local", "host=localhost user=u dbname=licita", "host=localhost user=u dbname=licita sslmode=disable"},
		{"keyword remote", "host=10.0.0.5 user=u dbname=licita", "host=10.0.0.5 user=u dbname=licita sslmode=require"},
		{"keyword explicit", "host=10.0.0.5 sslmode=disable", "host=10.0.0.5 sslmode=disable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DSN(&config.DatabaseConfig{DSN: tc.in})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDSN_Empty(t *testing.T) {
	_, err := DSN(&config.DatabaseConfig{})
	assert.Error(t, err)
}
