package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("90m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-90*time.Minute), got)

	got, err = parseSince(" 2024-04-30T08:00:00Z ", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "-1h", "yesterday"} {
		_, err := parseSince(bad, now)
		assert.Error(t, err, bad)
	}
}

func TestLoadOptionsFromFlags(t *testing.T) {
	t.Cleanup(func() {
		flagBaseURL, flagRPS, flagCloudflare, flagTraversal = "", 0, false, ""
	})

	require.NoError(t, rootCmd.PersistentFlags().Parse([]string{
		"--base-url", "https://mirror.example", "--rps", "1.5", "--cloudflare", "--traversal", "/ab12/",
	}))

	opts := loadOptions()
	assert.Equal(t, "https://mirror.example", opts.BaseURL)
	assert.Equal(t, 1.5, opts.RequestsPerSecond)
	assert.True(t, opts.CloudflareTransport)
	assert.Equal(t, "/ab12/", opts.TraversalPath)
}
