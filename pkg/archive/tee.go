package archive

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Tee saves to a primary store and then to every mirror. The primary result
// is returned. A failing mirror fails the save, after the primary has already
// been written.
type Tee struct {
	Primary Store
	Mirrors []Store
}

var _ Store = (*Tee)(nil)

// NewTee returns primary alone when there are no mirrors.
func NewTee(primary Store, mirrors ...Store) Store {
	if len(mirrors) == 0 {
		return primary
	}
	return &Tee{Primary: primary, Mirrors: mirrors}
}

func (t *Tee) Save(ctx context.Context, name string, data []byte) (*SaveResult, error) {
	result, err := t.Primary.Save(ctx, name, data)
	if err != nil {
		return nil, err
	}

	var merr *multierror.Error
	for _, m := range t.Mirrors {
		if _, err := m.Save(ctx, name, data); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("mirror: %w", err))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return result, err
	}

	return result, nil
}
