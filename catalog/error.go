package catalog

import "github.com/coredb/syscatalog/errors"

func newCorruptionError(format string, args ...interface{}) error {
	return errors.Newf(errors.Corruption, format, args...)
}
