package theoryerr

import (
	"github.com/hashicorp/go-multierror"
)

// Collector accumulates model-input errors discovered while the
// front-end adapter (package atom) walks a whole ground program, so a
// user sees every unknown theory function and duplicate minimize
// tuple in one report instead of stopping at the first one.
type Collector struct {
	errs *multierror.Error
}

// Add records err if non-nil. Safe to call with a nil err.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.errs = multierror.Append(c.errs, err)
}

// Err returns the combined error, or nil if nothing was collected.
func (c *Collector) Err() error {
	if c.errs == nil || len(c.errs.Errors) == 0 {
		return nil
	}
	return c.errs.ErrorOrNil()
}

// Len reports how many errors have been collected.
func (c *Collector) Len() int {
	if c.errs == nil {
		return 0
	}
	return len(c.errs.Errors)
}
