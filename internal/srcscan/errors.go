package srcscan

import (
	"errors"
	"fmt"
)

// Scan limits: source files larger than MaxSourceFileSize are skipped by
// ScanTree, and MaxLineLength bounds one physical line read by scanLines.
const (
	MaxSourceFileSize = 4 << 20 // 4MB
	MaxLineLength     = 1 << 16 // 64KB
)

// Sentinel errors for ParseError.Is matching.
var (
	ErrMissingUclass     = errors.New("driver body missing .uclass")
	ErrMissingCompatible = errors.New("driver has no known compatible table")
	ErrUnknownOfMatch    = errors.New(".of_match refers to an unknown udevice_id variable")
	ErrBadAliasName      = errors.New("alias property name does not match required form")
)

// ParseError represents a defect found while scanning one source file. It
// is returned as an error by ScanFile, and ScanTree stops and returns it;
// it is not turned into a warning.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrMissingUclass, ErrMissingCompatible, ErrUnknownOfMatch, ErrBadAliasName:
		return e.Message == target.Error()
	}
	return false
}
