package flows

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Report summarizes a run. Failures are collected rather than aborting the
// run; only a failed fetch stops it.
type Report struct {
	Fetched  int
	Matched  int
	Imported int

	// Succeeded and Failed count processed integrations.
	Succeeded int
	Failed    int

	Errors *multierror.Error
}

func newReport() *Report {
	return &Report{
		Errors: &multierror.Error{
			ErrorFormat: listFormat,
		},
	}
}

// Err returns the collected failures, or nil.
func (r *Report) Err() error {
	return r.Errors.ErrorOrNil()
}

func (r *Report) itemFailed(name string, err error) {
	r.Failed++
	r.Errors = multierror.Append(r.Errors, fmt.Errorf("%s: %w", name, err))
}

func (r *Report) importFailed(mode string, err error) {
	r.Errors = multierror.Append(r.Errors, fmt.Errorf("import (%s): %w", mode, err))
}

// listFormat renders one failure per line.
func listFormat(errs []error) string {
	if len(errs) == 1 {
		return fmt.Sprintf("1 failure: %s", errs[0])
	}

	msg := fmt.Sprintf("%d failures:", len(errs))
	for _, err := range errs {
		msg += "\n  * " + err.Error()
	}
	return msg
}
