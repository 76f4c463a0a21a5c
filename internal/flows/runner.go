// Package flows runs the integration pipeline: one fetch, the bulk import
// phase, then the per-integration actions in fetch order.
package flows

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/icflows/internal/config"
	"github.com/hashicorp-forge/icflows/pkg/archive"
	"github.com/hashicorp-forge/icflows/pkg/integrations"
	"github.com/hashicorp-forge/icflows/pkg/selector"
)

// Service is the remote integration service.
type Service interface {
	ListIntegrations(ctx context.Context) ([]integrations.Integration, error)
	ImportArchive(ctx context.Context, mode integrations.ImportMode, filename string, content []byte) (*integrations.Response, error)
	SetStatus(ctx context.Context, href string, status integrations.Status) error
	ExportArchive(ctx context.Context, href string) ([]byte, error)
	Delete(ctx context.Context, href string) error
}

// FileReader reads upload files.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

var errNoHref = errors.New("integration has no link")

// Runner executes one run against a Service.
type Runner struct {
	cfg    config.Config
	svc    Service
	store  archive.Store
	files  FileReader
	logger hclog.Logger
	out    io.Writer
}

// NewRunner returns a runner. Import status codes and list output go to out.
func NewRunner(cfg config.Config, svc Service, store archive.Store, files FileReader, logger hclog.Logger, out io.Writer) *Runner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		cfg:    cfg,
		svc:    svc,
		store:  store,
		files:  files,
		logger: logger,
		out:    out,
	}
}

// Run fetches the catalogue once and applies the configured actions to the
// integrations matching sel. The returned error is set only when the run could
// not proceed; per-integration failures are in the report.
func (r *Runner) Run(ctx context.Context, sel *selector.Selector) (*Report, error) {
	report := newReport()

	r.logger.Info(fmt.Sprintf("Using regular expression %s on field %s", sel.Expr, sel.Field))
	r.logger.Info(fmt.Sprintf("Connecting to server %s", r.cfg.Server))

	items, err := r.svc.ListIntegrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching integrations: %w", err)
	}
	report.Fetched = len(items)
	r.logger.Info(fmt.Sprintf("Found %d integrations", len(items)))

	for _, it := range items {
		if _, ok := it.FieldString(sel.Field); !ok {
			r.logger.Debug("integration has no matchable value",
				"integration", it.DisplayName(), "field", sel.Field)
		}
	}

	matched := selector.Match(sel, items)
	report.Matched = len(matched)
	r.logger.Info(fmt.Sprintf("Found %d integrations matching pattern", len(matched)))

	if r.cfg.Actions.Add {
		r.importArchive(ctx, report, integrations.ImportAdd, r.addSource())
	}
	if r.cfg.Actions.Replace {
		r.importArchive(ctx, report, integrations.ImportReplace, r.replaceSource())
	}

	for _, it := range matched {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := r.process(ctx, it); err != nil {
			report.itemFailed(it.DisplayName(), err)
			continue
		}
		report.Succeeded++
	}

	if r.cfg.Actions.List && r.cfg.Output != "" {
		// Written in one piece so line oriented writers see whole documents.
		var buf bytes.Buffer
		if err := WriteMatchSet(&buf, r.cfg.Output, matched); err != nil {
			return report, fmt.Errorf("error encoding output: %w", err)
		}
		if _, err := r.out.Write(buf.Bytes()); err != nil {
			return report, fmt.Errorf("error writing output: %w", err)
		}
	}

	return report, nil
}

// addSource is the explicit archive, or the raw pattern argument used as a
// file name.
func (r *Runner) addSource() string {
	if r.cfg.Archive != "" {
		return r.cfg.Archive
	}
	return r.cfg.Pattern
}

func (r *Runner) replaceSource() string {
	if r.cfg.Archive != "" {
		return r.cfg.Archive
	}
	return filepath.Join(r.cfg.ImportDir, config.ReplaceArchiveName)
}

// importArchive uploads one archive. Failures are logged and recorded; the
// run continues.
func (r *Runner) importArchive(ctx context.Context, report *Report, mode integrations.ImportMode, filename string) {
	content, err := r.files.ReadFile(filename)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("An error occurred while importing %s - skipping", filename), "error", err)
		report.importFailed(mode.String(), err)
		return
	}

	resp, err := r.svc.ImportArchive(ctx, mode, filename, content)
	if resp != nil {
		fmt.Fprintln(r.out, resp.StatusCode)
		if mode == integrations.ImportReplace {
			r.logger.Debug("import response", "body", string(resp.Body))
		}
	}
	if err != nil {
		r.logger.Warn(fmt.Sprintf("An error occurred while importing %s - skipping", filename), "error", err)
		report.importFailed(mode.String(), err)
		return
	}

	report.Imported++
	r.logger.Info(fmt.Sprintf("Import successful %s", filename))
}

// process applies the actions to one integration. At most one of activate,
// deactivate and export runs, in that order of precedence; delete follows
// unless that step failed.
func (r *Runner) process(ctx context.Context, it integrations.Integration) error {
	name := it.DisplayName()
	acts := r.cfg.Actions

	if acts.List {
		r.logger.Info(fmt.Sprintf("Current status of %s is %s", name, it.Status()))
		return nil
	}

	deactivate := it.Status() == integrations.StatusActivated && (acts.Deactivate || acts.Delete)
	if !acts.Activate && !deactivate && !acts.Export && !acts.Delete {
		r.logger.Debug(fmt.Sprintf("Considered %s", name))
		return nil
	}

	href, ok := it.Href()
	if !ok {
		r.logger.Warn(fmt.Sprintf("No link found for %s - skipping", name))
		return errNoHref
	}

	switch {
	case acts.Activate:
		r.logger.Info(fmt.Sprintf("Activating %s", name))
		if err := r.svc.SetStatus(ctx, href, integrations.StatusActivated); err != nil {
			r.logger.Warn(fmt.Sprintf("An error occurred while activating %s - skipping", name), "error", err)
			return err
		}
		r.logger.Info(fmt.Sprintf("Activation successful %s", name))

	case deactivate:
		r.logger.Info(fmt.Sprintf("Deactivating %s", name))
		if err := r.svc.SetStatus(ctx, href, integrations.StatusConfigured); err != nil {
			r.logger.Warn(fmt.Sprintf("An error occurred while deactivating %s - skipping", name), "error", err)
			return err
		}
		r.logger.Info(fmt.Sprintf("Deactivation successful %s", name))

	case acts.Export:
		if err := r.export(ctx, it, href); err != nil {
			return err
		}
	}

	if acts.Delete {
		r.logger.Info(fmt.Sprintf("Deleting %s", name))
		if err := r.svc.Delete(ctx, href); err != nil {
			r.logger.Warn(fmt.Sprintf("An error occurred while deleting %s", name), "error", err)
			return err
		}
		r.logger.Info(fmt.Sprintf("Deleted %s", name))
	}

	return nil
}

func (r *Runner) export(ctx context.Context, it integrations.Integration, href string) error {
	name := it.DisplayName()
	r.logger.Info(fmt.Sprintf("Exporting %s", name))

	data, err := r.svc.ExportArchive(ctx, href)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("An error occurred while downloading export data for %s - skipping", name), "error", err)
		return err
	}

	result, err := r.store.Save(ctx, it.ArchiveName(), data)
	if result != nil && result.Backup != "" {
		r.logger.Info(fmt.Sprintf("Renamed existing file %s to %s", result.Location, result.Backup))
	}
	if err != nil {
		r.logger.Warn(fmt.Sprintf("An error occurred writing the export data for %s - skipping", name), "error", err)
		return err
	}

	r.logger.Info(fmt.Sprintf("Exported %s to %s", name, result.Location))
	return nil
}
