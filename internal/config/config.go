// Package config builds the run configuration from command line flags,
// environment variables and an optional HCL configuration file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/icflows/pkg/archive"
	"github.com/hashicorp-forge/icflows/pkg/integrations"
)

const (
	// DefaultLogFile is the log file used when none is configured.
	DefaultLogFile = "output.log"

	// DefaultLogLevel is the file log level used when none is configured.
	DefaultLogLevel = "INFO"

	// ReplaceArchiveName is the upload file for replace when no archive is
	// given explicitly.
	ReplaceArchiveName = "TESTINTEGRATION_01.00.0000.iar"
)

// Environment variables consulted for credentials and server.
const (
	EnvUser     = "ICFLOWS_USER"
	EnvPassword = "ICFLOWS_PASSWORD"
	EnvServer   = "ICFLOWS_SERVER"
)

// LogLevels are the accepted names for the log level, upper case.
var LogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// Output formats for the match set.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Actions are the independent action switches. Contradictory combinations are
// accepted; the dispatcher resolves them by fixed precedence.
type Actions struct {
	Export     bool `json:"export"`
	Add        bool `json:"add"`
	Replace    bool `json:"replace"`
	Delete     bool `json:"delete"`
	Activate   bool `json:"activate"`
	Deactivate bool `json:"deactivate"`
	List       bool `json:"list"`
}

// Config is the configuration of a single run. It is built once at startup
// and passed by value.
type Config struct {
	// Pattern is the raw positional argument, "[field:]pattern".
	Pattern string `json:"pattern"`

	ExportDir string `json:"export_dir"`
	ImportDir string `json:"import_dir"`

	// Archive is an explicit upload file for add and replace.
	Archive string `json:"archive"`

	Actions Actions `json:"actions"`

	User     string `json:"user"`
	Password string `json:"password"`
	Server   string `json:"server"`

	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	TLSVerify bool          `json:"tls_verify"`
	Timeout   time.Duration `json:"timeout"`
	Retries   int           `json:"retries"`

	// Output selects machine readable list output on stdout.
	Output string `json:"output"`

	// S3Mirror mirrors exported archives to a bucket when set.
	S3Mirror *archive.S3Config `json:"s3_mirror"`
}

// Default returns the configuration used when nothing is configured.
func Default() Config {
	return Config{
		ExportDir: ".",
		ImportDir: ".",
		LogLevel:  DefaultLogLevel,
		LogFile:   DefaultLogFile,
	}
}

// Validate checks the configuration. Action flags are not validated against
// each other.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.Server, validation.Required, validation.By(httpURL)),
		validation.Field(&c.LogLevel, validation.Required, validation.In(toAny(LogLevels)...)),
		validation.Field(&c.LogFile, validation.Required),
		validation.Field(&c.Output, validation.In(OutputJSON, OutputYAML)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Retries, validation.Min(0)),
		validation.Field(&c.S3Mirror),
	)
}

// ClientConfig returns the API client configuration.
func (c Config) ClientConfig() *integrations.Config {
	tlsVerify := c.TLSVerify
	return &integrations.Config{
		BaseURL:   c.Server,
		User:      c.User,
		Password:  c.Password,
		TLSVerify: &tlsVerify,
		Timeout:   c.Timeout,
		Retries:   c.Retries,
	}
}

func httpURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Flags holds values given on the command line. Nil pointers and empty
// strings mean the flag was not given.
type Flags struct {
	ConfigFile string
	Pattern    string
	Actions    Actions
	Output     string

	ExportDir *string
	ImportDir *string
	Archive   *string
	User      *string
	Password  *string
	Server    *string
	LogLevel  *string
	LogFile   *string
	TLSVerify *bool
	Timeout   *time.Duration
	Retries   *int
}

// Loader resolves a Config with precedence flag, environment, config file,
// default.
type Loader struct {
	// Fs is the filesystem the config file is read from.
	Fs afero.Fs

	// Getenv looks up environment variables.
	Getenv func(string) string
}

// NewLoader returns a loader over the OS filesystem and environment.
func NewLoader() *Loader {
	return &Loader{
		Fs:     afero.NewOsFs(),
		Getenv: os.Getenv,
	}
}

// Load resolves and validates the configuration.
func (l *Loader) Load(f Flags) (Config, error) {
	cfg := Default()

	if f.ConfigFile != "" {
		file, err := l.readFile(f.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		if err := file.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("invalid configuration file %s: %w", f.ConfigFile, err)
		}
	}

	l.applyEnv(&cfg)
	f.apply(&cfg)

	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	cfg.Output = strings.ToLower(cfg.Output)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv(EnvUser); v != "" {
		cfg.User = v
	}
	if v := getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
	if v := getenv(EnvServer); v != "" {
		cfg.Server = v
	}
}

func (f Flags) apply(cfg *Config) {
	cfg.Pattern = f.Pattern
	cfg.Actions = f.Actions
	if f.Output != "" {
		cfg.Output = f.Output
	}

	setString(&cfg.ExportDir, f.ExportDir)
	setString(&cfg.ImportDir, f.ImportDir)
	setString(&cfg.Archive, f.Archive)
	setString(&cfg.User, f.User)
	setString(&cfg.Password, f.Password)
	setString(&cfg.Server, f.Server)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.LogFile, f.LogFile)

	if f.TLSVerify != nil {
		cfg.TLSVerify = *f.TLSVerify
	}
	if f.Timeout != nil {
		cfg.Timeout = *f.Timeout
	}
	if f.Retries != nil {
		cfg.Retries = *f.Retries
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
