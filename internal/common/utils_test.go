package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogInfo(t *testing.T) {
	var out bytes.Buffer
	called := false

	LogInfo(&out, "hello", func() { called = true })

	assert.Equal(t, "hello\n", out.String())
	assert.True(t, called)
}

func TestLogError_NonCritic(t *testing.T) {
	var out bytes.Buffer

	LogError(&out, "[x] something broke", false)

	assert.Equal(t, "[x] something broke\n", out.String())
}

func TestSlugFromRemoteURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:sanix-darker/resolv.git", "sanix-darker/resolv"},
		{"https://github.com/sanix-darker/resolv.git", "sanix-darker/resolv"},
		{"https://github.com/sanix-darker/resolv", "sanix-darker/resolv"},
		{"ssh://git@github.com/sanix-darker/resolv.git", "sanix-darker/resolv"},
		{"https://gitlab.com/group/sub/project.git", "sub/project"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := SlugFromRemoteURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlugFromRemoteURL_Invalid(t *testing.T) {
	for _, url := range []string{"", "github.com", "https://github.com/"} {
		_, err := SlugFromRemoteURL(url)
		assert.Error(t, err, url)
	}
}
