package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestLoader(env map[string]string, files map[string]string) *Loader {
	fs := afero.NewMemMapFs()
	for name, content := range files {
		_ = afero.WriteFile(fs, name, []byte(content), 0o644)
	}
	return &Loader{
		Fs:     fs,
		Getenv: func(k string) string { return env[k] },
	}
}

func TestLoadDefaults(t *testing.T) {
	loader := newTestLoader(nil, nil)

	cfg, err := loader.Load(Flags{
		Pattern:  "ORDER",
		User:     strPtr("u"),
		Password: strPtr("p"),
		Server:   strPtr("https://ic.example.com"),
	})
	require.NoError(t, err)

	assert.Equal(t, "ORDER", cfg.Pattern)
	assert.Equal(t, ".", cfg.ExportDir)
	assert.Equal(t, ".", cfg.ImportDir)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "output.log", cfg.LogFile)
	assert.False(t, cfg.TLSVerify)
	assert.Zero(t, cfg.Timeout)
	assert.Zero(t, cfg.Retries)
	assert.Nil(t, cfg.S3Mirror)
}

func TestLoadPrecedence(t *testing.T) {
	files := map[string]string{
		"/etc/icflows.hcl": `
server     = "https://file.example.com"
user       = "file-user"
password   = env("SECRET_FROM_ENV")
export_dir = "/var/exports"
log_level  = "debug"
timeout    = "45s"
retries    = 2
tls_verify = true
`,
	}
	env := map[string]string{
		EnvUser:           "env-user",
		"SECRET_FROM_ENV": "file-pass",
	}
	loader := newTestLoader(env, files)

	t.Run("file then env then flags", func(t *testing.T) {
		cfg, err := loader.Load(Flags{
			ConfigFile: "/etc/icflows.hcl",
			Pattern:    "code:^HELLO",
			Server:     strPtr("https://flag.example.com"),
		})
		require.NoError(t, err)

		assert.Equal(t, "https://flag.example.com", cfg.Server)
		assert.Equal(t, "env-user", cfg.User)
		assert.Equal(t, "file-pass", cfg.Password)
		assert.Equal(t, "/var/exports", cfg.ExportDir)
		assert.Equal(t, ".", cfg.ImportDir)
		assert.Equal(t, "DEBUG", cfg.LogLevel)
		assert.Equal(t, 45*time.Second, cfg.Timeout)
		assert.Equal(t, 2, cfg.Retries)
		assert.True(t, cfg.TLSVerify)
	})

	t.Run("flag overrides env", func(t *testing.T) {
		retries := 0
		verify := false
		cfg, err := loader.Load(Flags{
			ConfigFile: "/etc/icflows.hcl",
			User:       strPtr("flag-user"),
			Retries:    &retries,
			TLSVerify:  &verify,
		})
		require.NoError(t, err)

		assert.Equal(t, "flag-user", cfg.User)
		assert.Equal(t, 0, cfg.Retries)
		assert.False(t, cfg.TLSVerify)
	})
}

func TestLoadS3Mirror(t *testing.T) {
	files := map[string]string{
		"/icflows.hcl": `
server   = "https://ic.example.com"
user     = "u"
password = "p"

s3_mirror {
  endpoint   = "http://localhost:9000"
  region     = "us-east-1"
  bucket     = "archives"
  prefix     = "exports/"
  access_key = "minioadmin"
  secret_key = "minioadmin"
}
`,
		"/bad-mirror.hcl": `
server   = "https://ic.example.com"
user     = "u"
password = "p"

s3_mirror {
  region = "us-east-1"
  bucket = ""
}
`,
	}
	loader := newTestLoader(nil, files)

	cfg, err := loader.Load(Flags{ConfigFile: "/icflows.hcl"})
	require.NoError(t, err)
	require.NotNil(t, cfg.S3Mirror)
	assert.Equal(t, "archives", cfg.S3Mirror.Bucket)
	assert.Equal(t, "http://localhost:9000", cfg.S3Mirror.Endpoint)

	_, err = loader.Load(Flags{ConfigFile: "/bad-mirror.hcl"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestLoadErrors(t *testing.T) {
	files := map[string]string{
		"/syntax.hcl":  `server = `,
		"/timeout.hcl": `timeout = "soon"`,
	}

	valid := func(f Flags) Flags {
		f.User = strPtr("u")
		f.Password = strPtr("p")
		f.Server = strPtr("https://ic.example.com")
		return f
	}

	tests := []struct {
		name     string
		flags    Flags
		errorMsg string
	}{
		{
			name:     "missing credentials and server",
			flags:    Flags{Pattern: "x"},
			errorMsg: "password: cannot be blank; server: cannot be blank; user: cannot be blank",
		},
		{
			name:     "server without scheme",
			flags:    Flags{User: strPtr("u"), Password: strPtr("p"), Server: strPtr("ic.example.com")},
			errorMsg: "server: must use http or https scheme",
		},
		{
			name:     "unknown log level",
			flags:    valid(Flags{LogLevel: strPtr("verbose")}),
			errorMsg: "log_level",
		},
		{
			name:     "unknown output",
			flags:    valid(Flags{Output: "xml"}),
			errorMsg: "output",
		},
		{
			name:     "missing config file",
			flags:    valid(Flags{ConfigFile: "/nope.hcl"}),
			errorMsg: "configuration file not found",
		},
		{
			name:     "config syntax error",
			flags:    valid(Flags{ConfigFile: "/syntax.hcl"}),
			errorMsg: "failed to parse configuration file",
		},
		{
			name:     "config bad duration",
			flags:    valid(Flags{ConfigFile: "/timeout.hcl"}),
			errorMsg: "timeout",
		},
	}

	loader := newTestLoader(nil, files)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(tt.flags)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoadCaseInsensitive(t *testing.T) {
	loader := newTestLoader(map[string]string{
		EnvUser:     "u",
		EnvPassword: "p",
		EnvServer:   "https://ic.example.com",
	}, nil)

	cfg, err := loader.Load(Flags{LogLevel: strPtr("warning"), Output: "YAML"})
	require.NoError(t, err)
	assert.Equal(t, "WARNING", cfg.LogLevel)
	assert.Equal(t, OutputYAML, cfg.Output)
}

func TestClientConfig(t *testing.T) {
	cfg := Default()
	cfg.Server = "https://ic.example.com"
	cfg.User = "u"
	cfg.Password = "p"
	cfg.Retries = 3

	cc := cfg.ClientConfig()
	assert.Equal(t, "https://ic.example.com", cc.BaseURL)
	require.NotNil(t, cc.TLSVerify)
	assert.False(t, *cc.TLSVerify)
	assert.Equal(t, 3, cc.Retries)
	assert.NoError(t, cc.Validate())
}
