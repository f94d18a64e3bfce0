package knowledge

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is returned when the default data source cannot be
// located or read.
var ErrSourceUnavailable = errors.New("knowledge source unavailable")

// ErrUnsupportedFormat is wrapped in a LoadError for files whose format
// cannot be determined.
var ErrUnsupportedFormat = errors.New("unsupported tabular format")

// LoadError represents input that cannot be interpreted as tabular data.
type LoadError struct {
	Source string // file name, path or URL
	Format Format
	Err    error
}

func (e *LoadError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("load error %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("load error [%s] %s: %v", e.Format, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err carries a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
