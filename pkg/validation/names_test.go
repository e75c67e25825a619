package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRepositoryName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"simple name", "busybox", false, ""},
		{"with hyphen", "my-app", false, ""},
		{"repeated hyphen", "my--app", false, ""},
		{"double underscore", "my__app", false, ""},
		{"with dot", "my.app", false, ""},
		{"namespaced", "team/app", false, ""},
		{"deeply nested", "team/sub/app", false, ""},
		{"complex valid", "my-org/my_app.v2", false, ""},

		{"path traversal", "../etc/passwd", true, "path traversal"},
		{"path traversal nested", "team/../../etc", true, "path traversal"},

		{"empty", "", true, "cannot be empty"},
		{"starts with hyphen", "-app", true, "invalid repository name format"},
		{"ends with hyphen", "app-", true, "invalid repository name format"},
		{"uppercase", "MyApp", true, "invalid repository name format"},
		{"triple underscore", "my___app", true, "invalid repository name format"},
		{"spaces", "my app", true, "invalid repository name format"},
		{"starts with slash", "/app", true, "invalid repository name format"},
		{"ends with slash", "app/", true, "invalid repository name format"},
		{"empty component", "team//app", true, "invalid repository name format"},
		{"too long", strings.Repeat("a", 256), true, "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRepositoryName(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateNamespaceName(t *testing.T) {
	assert.NoError(t, ValidateNamespaceName("team"))
	assert.NoError(t, ValidateNamespaceName("team-a"))
	assert.Error(t, ValidateNamespaceName(""))
	assert.Error(t, ValidateNamespaceName("team/app"))
	assert.Error(t, ValidateNamespaceName("Team"))
}

func TestValidateTag(t *testing.T) {
	valid := []string{"latest", "1.0", "v1.2.3-rc.1", "_internal", "UPPER", strings.Repeat("a", 128)}
	for _, tag := range valid {
		assert.NoError(t, ValidateTag(tag), tag)
	}

	invalid := []string{"", ".hidden", "-dash", "with space", "a:b", "a/b", strings.Repeat("a", 129)}
	for _, tag := range invalid {
		assert.Error(t, ValidateTag(tag), tag)
	}
}

func TestValidateReference(t *testing.T) {
	digest := "sha256:" + strings.Repeat("a", 64)
	assert.NoError(t, ValidateReference("latest"))
	assert.NoError(t, ValidateReference(digest))
	assert.Error(t, ValidateReference(""))
	assert.Error(t, ValidateReference("sha256:short"))
}

func TestIsDigest(t *testing.T) {
	assert.True(t, IsDigest("sha256:"+strings.Repeat("0", 64)))
	assert.True(t, IsDigest("sha512:"+strings.Repeat("f", 128)))
	assert.False(t, IsDigest("sha256:"+strings.Repeat("G", 64)))
	assert.False(t, IsDigest("latest"))

	assert.True(t, LooksLikeDigest("sha256:short"))
	assert.False(t, LooksLikeDigest("latest"))
}

func TestValidateHostname(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"registry.test", false},
		{"registry.test:5000", false},
		{"localhost:5000", false},
		{"127.0.0.1:5000", false},
		{"[::1]:5000", false},
		{"my-registry", false},
		{"", true},
		{"registry.test:0", true},
		{"registry.test:99999", true},
		{"registry.test:http", true},
		{"-bad.test", true},
		{"bad..test", true},
		{"bad_host.test", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateHostname(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.NoError(t, ValidateUsername("ci.bot-01"))
	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername(".dot"))
}
