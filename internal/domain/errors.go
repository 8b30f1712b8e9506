package domain

import "fmt"

// DefaultFetchHint is shown alongside fetch failures.
const DefaultFetchHint = "연도별 파일만 제공됩니다. 네트워크(방화벽/SSL) 또는 접근 백엔드(libnetcdf DAP, HTTP DAP2) 설치 문제일 수 있어요."

// FetchError is a terminal failure to obtain data from the archive. It is
// distinct from ErrNoData: the archive could not be read at all.
type FetchError struct {
	URL      string
	Backends []string // Backends attempted, in order.
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (backends %v): %v", e.URL, e.Backends, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Hint returns remediation text for the user.
func (e *FetchError) Hint() string {
	return DefaultFetchHint
}
