package tablet

import "errors"

var errEmptyEntryID = errors.New("tablet: entry_id must not be empty")
