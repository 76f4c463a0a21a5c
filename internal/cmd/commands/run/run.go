package run

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/icflows/internal/cmd/base"
	"github.com/hashicorp-forge/icflows/internal/config"
	"github.com/hashicorp-forge/icflows/internal/flows"
	"github.com/hashicorp-forge/icflows/internal/logging"
	"github.com/hashicorp-forge/icflows/internal/version"
	"github.com/hashicorp-forge/icflows/pkg/archive"
	"github.com/hashicorp-forge/icflows/pkg/integrations"
	"github.com/hashicorp-forge/icflows/pkg/selector"
)

type Command struct {
	*base.Command

	flagConfig     string
	flagLogLevel   string
	flagLogFile    string
	flagExportDir  string
	flagImportDir  string
	flagArchive    string
	flagExport     bool
	flagAdd        bool
	flagReplace    bool
	flagDelete     bool
	flagActivate   bool
	flagDeactivate bool
	flagList       bool
	flagUser       string
	flagPassword   string
	flagServer     string
	flagTLSVerify  bool
	flagTimeout    time.Duration
	flagRetries    int
	flagOutput     string

	// Overridden in tests.
	fs      afero.Fs
	getenv  func(string) string
	console io.Writer
}

func (c *Command) Synopsis() string {
	return "Apply actions to integrations matching a pattern (default command)"
}

func (c *Command) Help() string {
	return `Usage: icflows [run] [options] <regex>

  Fetch all integrations from the server, select those whose target field
  matches <regex>, and apply the requested actions to them.

  <regex> has the form [field:]pattern. The text after the last colon is the
  regular expression, searched anywhere in the value; the text before it names
  the field to test and defaults to "name". An empty pattern matches only
  empty values. Example: lastUpdatedBy:fake@email.com

  Per integration, in fetch order, the first applicable step runs:
    -list                         log the current status only
    -activate                     activate
    -deactivate or -delete        deactivate, if the integration is ACTIVATED
    -export                       download the archive into -exportdir
  and then, with -delete and unless the step above failed, the integration
  is deleted.

  -add and -replace upload a single archive before any integration is
  processed. -add uploads -archive, or <regex> itself as a file name.
  -replace uploads -archive, or TESTINTEGRATION_01.00.0000.iar from
  -importdir.

  Credentials and server may also be given with ICFLOWS_USER,
  ICFLOWS_PASSWORD and ICFLOWS_SERVER, or in the -config file.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("run", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL or JSON configuration file.",
	)
	f.StringVar(
		&c.flagLogLevel, "log", config.DefaultLogLevel,
		"Log file level: DEBUG, INFO, WARNING, ERROR or CRITICAL.",
	)
	f.StringVar(
		&c.flagLogFile, "logfile", config.DefaultLogFile,
		"Log file, appended to.",
	)
	f.StringVar(
		&c.flagExportDir, "exportdir", ".",
		"Export directory, created if it does not exist.",
	)
	f.BoolVar(
		&c.flagExport, "export", false,
		"Export integrations.",
	)
	f.StringVar(
		&c.flagImportDir, "importdir", ".",
		"Source directory for -replace.",
	)
	f.StringVar(
		&c.flagArchive, "archive", "",
		"Archive file to upload with -add or -replace.",
	)
	f.BoolVar(
		&c.flagAdd, "add", false,
		"Import-add an integration archive.",
	)
	f.BoolVar(
		&c.flagReplace, "replace", false,
		"Import-replace an integration archive.",
	)
	f.BoolVar(
		&c.flagDelete, "delete", false,
		"Delete integrations, deactivating them first.",
	)
	f.BoolVar(
		&c.flagActivate, "activate", false,
		"Activate integrations.",
	)
	f.BoolVar(
		&c.flagDeactivate, "deactivate", false,
		"Deactivate integrations.",
	)
	f.BoolVar(
		&c.flagList, "list", false,
		"List integration status. No changes are made.",
	)
	f.StringVar(
		&c.flagUser, "user", "",
		"Service user.",
	)
	f.StringVar(
		&c.flagPassword, "pass", "",
		"Service password.",
	)
	f.StringVar(
		&c.flagServer, "server", "",
		"Service base URL, e.g. https://tenant.integration.example.com.",
	)
	f.BoolVar(
		&c.flagTLSVerify, "tls-verify", false,
		"Verify the server certificate.",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 0,
		"Timeout for each request, 0 for none.",
	)
	f.IntVar(
		&c.flagRetries, "retries", 0,
		"Retry attempts after a transport failure. HTTP errors are never retried.",
	)
	f.StringVar(
		&c.flagOutput, "output", "",
		"With -list, also print the matching integrations as json or yaml.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	// Parse flags.
	f := c.Flags()
	positional, err := f.ParseInterspersed(args)
	if errors.Is(err, flag.ErrHelp) {
		return cli.RunResultHelp
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		ui.Error(c.Help())
		return 1
	}
	if len(positional) != 1 {
		ui.Error(fmt.Sprintf("expected exactly one regex argument, got %d", len(positional)))
		ui.Error(c.Help())
		return 1
	}

	sel, err := selector.Parse(positional[0])
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing regex argument: %v", err))
		return 1
	}

	// Build configuration.
	loader := config.NewLoader()
	if c.fs != nil {
		loader.Fs = c.fs
	}
	if c.getenv != nil {
		loader.Getenv = c.getenv
	}
	cfg, err := loader.Load(c.configFlags(f, positional[0]))
	if err != nil {
		ui.Error(fmt.Sprintf("error in configuration: %v", err))
		return 1
	}

	// Initialize logging.
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	logger, closeLog, err := logging.New(logging.Options{
		Name:    "icflows",
		Level:   level,
		File:    cfg.LogFile,
		Fs:      c.fs,
		Console: c.console,
	})
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing logging: %v", err))
		return 1
	}
	defer closeLog()

	logger.Info("starting run", "run_id", uuid.NewString(), "version", version.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := integrations.NewClient(cfg.ClientConfig(), logger.Named("client"))
	if err != nil {
		logger.Error("error creating client", "error", err)
		return 1
	}

	local := archive.NewLocalStore(c.fs, cfg.ExportDir)
	store, err := c.archiveStore(ctx, cfg, local, logger)
	if err != nil {
		logger.Error("error initializing archive mirror", "error", err)
		return 1
	}

	runner := flows.NewRunner(cfg, client, store, local, logger, &uiWriter{ui: ui})
	report, err := runner.Run(ctx, sel)
	if err != nil {
		logger.Error("run aborted", "error", err)
		return 1
	}

	logger.Info("run complete",
		"fetched", report.Fetched,
		"matched", report.Matched,
		"imported", report.Imported,
		"succeeded", report.Succeeded,
		"failed", report.Failed)
	if err := report.Err(); err != nil {
		logger.Warn(err.Error())
	}

	return 0
}

// configFlags collects the flags that were given on the command line.
func (c *Command) configFlags(f *base.FlagSet, pattern string) config.Flags {
	flags := config.Flags{
		ConfigFile: c.flagConfig,
		Pattern:    pattern,
		Output:     c.flagOutput,
		Actions: config.Actions{
			Export:     c.flagExport,
			Add:        c.flagAdd,
			Replace:    c.flagReplace,
			Delete:     c.flagDelete,
			Activate:   c.flagActivate,
			Deactivate: c.flagDeactivate,
			List:       c.flagList,
		},
	}

	strs := map[string]struct {
		dst **string
		val *string
	}{
		"exportdir": {&flags.ExportDir, &c.flagExportDir},
		"importdir": {&flags.ImportDir, &c.flagImportDir},
		"archive":   {&flags.Archive, &c.flagArchive},
		"user":      {&flags.User, &c.flagUser},
		"pass":      {&flags.Password, &c.flagPassword},
		"server":    {&flags.Server, &c.flagServer},
		"log":       {&flags.LogLevel, &c.flagLogLevel},
		"logfile":   {&flags.LogFile, &c.flagLogFile},
	}
	for name, s := range strs {
		if f.Visited(name) {
			*s.dst = s.val
		}
	}

	if f.Visited("tls-verify") {
		flags.TLSVerify = &c.flagTLSVerify
	}
	if f.Visited("timeout") {
		flags.Timeout = &c.flagTimeout
	}
	if f.Visited("retries") {
		flags.Retries = &c.flagRetries
	}

	return flags
}

func (c *Command) archiveStore(ctx context.Context, cfg config.Config, local *archive.LocalStore, logger hclog.Logger) (archive.Store, error) {
	if cfg.S3Mirror == nil {
		return local, nil
	}

	mirror, err := archive.NewS3Store(ctx, cfg.S3Mirror, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("mirroring exports to S3", "bucket", cfg.S3Mirror.Bucket, "prefix", cfg.S3Mirror.Prefix)
	return archive.NewTee(local, mirror), nil
}

// uiWriter sends whole lines written by the runner to the UI's output.
type uiWriter struct {
	ui cli.Ui
}

func (w *uiWriter) Write(p []byte) (int, error) {
	w.ui.Output(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
