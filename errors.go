package gitvers

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReleaseTag is returned when a version is derived but no annotated
	// tag matches the release tag pattern.
	ErrNoReleaseTag = errors.New("no release tag found")

	// ErrPatternMismatch is returned when a tag does not fully match the
	// release tag pattern it is derived with.
	ErrPatternMismatch = errors.New("tag does not match release tag pattern")

	// ErrUnknownGroup is returned when a match group template references a
	// capture group the release tag pattern does not define.
	ErrUnknownGroup = errors.New("match group references unknown capture group")

	// ErrMalformedVersion is matched by every *MalformedVersionError.
	ErrMalformedVersion = errors.New("malformed version")

	// ErrEmptySplitter is returned when a version splitter is the empty string.
	ErrEmptySplitter = errors.New("version splitter must not be empty")

	// ErrShortCommitID is returned when a commit id is too short to abbreviate.
	ErrShortCommitID = errors.New("commit id too short")

	// ErrNoRepository is returned by NewResolver when Options has neither a
	// Path nor a Repository.
	ErrNoRepository = errors.New("repository path or repository is required")
)

// MalformedVersionError reports a version whose last component is not a
// non-negative integer.
type MalformedVersionError struct {
	Version   string
	Component string
	Err       error
}

func (e *MalformedVersionError) Error() string {
	return fmt.Sprintf("malformed version %q: last component %q: %v", e.Version, e.Component, e.Err)
}

func (e *MalformedVersionError) Unwrap() error {
	return e.Err
}

func (e *MalformedVersionError) Is(target error) bool {
	return target == ErrMalformedVersion
}
