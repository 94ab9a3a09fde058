package quorum

import "github.com/coredb/syscatalog/errors"

func newInvalidConfigError(format string, args ...interface{}) error {
	return errors.Newf(errors.InvalidArgument, format, args...)
}
