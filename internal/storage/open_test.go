package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBackendOf(t *testing.T) {
	cases := map[string]Backend{
		"mongodb://localhost:27017":                 BackendMongo,
		"mongodb+srv://user:pw@cluster.example.net": BackendMongo,
		"postgres://user:pw@localhost:5432/bot":     BackendPostgres,
		"postgresql://user:pw@localhost:5432/bot":   BackendPostgres,
	}
	for url, want := range cases {
		got, err := BackendOf(url)
		require.NoError(t, err, url)
		require.Equal(t, want, got, url)
	}

	_, err := BackendOf("redis://localhost")
	require.ErrorIs(t, err, ErrUnsupportedURL)
}
