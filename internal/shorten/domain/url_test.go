package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://example.com/path", false},
		{"valid https", "https://example.com", false},
		{"with query", "https://example.com/a?b=c", false},
		{"missing scheme", "example.com/path", true},
		{"ftp scheme", "ftp://example.com/file", true},
		{"empty", "", true},
		{"no host", "https:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.url)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidURL)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidate_TooLong(t *testing.T) {
	long := "https://example.com/"
	for len(long) <= maxURLLength {
		long += "a"
	}
	require.ErrorIs(t, Validate(long), ErrInvalidURL)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing slash stripped", "https://example.com/path/", "https://example.com/path"},
		{"multiple trailing slashes", "https://example.com/path///", "https://example.com/path"},
		{"lowercased", "https://Example.COM/Path", "https://example.com/path"},
		{"query preserved", "https://example.com/a?b=C", "https://example.com/a?b=c"},
		{"fragment preserved", "https://example.com/a#Frag", "https://example.com/a#frag"},
		{"bare host", "https://example.com", "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_EquivalentURLsCollide(t *testing.T) {
	a, err := Normalize("https://Example.com/A/")
	require.NoError(t, err)
	b, err := Normalize("https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
