package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/hashicorp-forge/icflows/pkg/archive"
)

// File is the schema of the HCL (or JSON) configuration file. Every attribute
// is optional; unset attributes leave the default in place.
type File struct {
	Server   string `hcl:"server,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`

	ExportDir string `hcl:"export_dir,optional"`
	ImportDir string `hcl:"import_dir,optional"`

	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`

	TLSVerify *bool  `hcl:"tls_verify,optional"`
	Timeout   string `hcl:"timeout,optional"` // e.g., "30s"
	Retries   *int   `hcl:"retries,optional"`

	S3Mirror *archive.S3Config `hcl:"s3_mirror,block"`
}

// readFile decodes the configuration file. The format follows the file
// extension, ".hcl" or ".json".
func (l *Loader) readFile(filename string) (*File, error) {
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	src, err := afero.ReadFile(fs, filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var file File
	if err := hclsimple.Decode(filename, src, l.evalContext(), &file); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	return &file, nil
}

// evalContext exposes env("NAME") to the configuration file so secrets can
// stay out of it.
func (l *Loader) evalContext() *hcl.EvalContext {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	env := function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.StringVal(getenv(args[0].AsString())), nil
		},
	})

	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": env,
		},
	}
}

func (f *File) apply(cfg *Config) error {
	setNonEmpty(&cfg.Server, f.Server)
	setNonEmpty(&cfg.User, f.User)
	setNonEmpty(&cfg.Password, f.Password)
	setNonEmpty(&cfg.ExportDir, f.ExportDir)
	setNonEmpty(&cfg.ImportDir, f.ImportDir)
	setNonEmpty(&cfg.LogLevel, f.LogLevel)
	setNonEmpty(&cfg.LogFile, f.LogFile)

	if f.TLSVerify != nil {
		cfg.TLSVerify = *f.TLSVerify
	}
	if f.Retries != nil {
		cfg.Retries = *f.Retries
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}

	cfg.S3Mirror = f.S3Mirror
	return nil
}

func setNonEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
