// Package gitvers computes build versions for a project from the annotated
// release tags and head commit of its Git repository.
package gitvers

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
)

// Environment variables read by EnvironmentFromOS.
const (
	EnvCI              = "SNAP_CI"
	EnvPipelineCounter = "SNAP_PIPELINE_COUNTER"
)

// HeadLookup selects how the head commit of a repository is found.
type HeadLookup int

const (
	// HeadFromRef resolves the symbolic HEAD reference.
	HeadFromRef HeadLookup = iota

	// HeadFromLog walks the history reachable from every reference and takes
	// the first commit visited. With several branches this is not necessarily
	// the checked out commit.
	HeadFromLog
)

func (h HeadLookup) String() string {
	switch h {
	case HeadFromRef:
		return "ref"
	case HeadFromLog:
		return "log"
	default:
		return "unknown"
	}
}

// Environment carries the build environment signals used for integration
// versions.
type Environment struct {
	// CI must be exactly "true" for the pipeline counter to be used
	CI string

	// PipelineCounter is the CI pipeline number, digits only
	PipelineCounter string
}

// EnvironmentFromOS reads the build environment from the process environment.
func EnvironmentFromOS() Environment {
	return Environment{
		CI:              os.Getenv(EnvCI),
		PipelineCounter: os.Getenv(EnvPipelineCounter),
	}
}

// Scheme describes how release tags map to version strings
type Scheme struct {
	// TagPattern is a regex that must match the whole short tag name,
	// e.g. `^release-(\d+\.\d+\.\d+)$`
	TagPattern string

	// MatchGroup is the expansion template selecting the version from
	// TagPattern's capture groups, e.g. "$1"
	MatchGroup string

	// Splitter separates the integer components of a version, e.g. "."
	Splitter string

	// SnapshotQualifier is appended to next snapshot versions, e.g. "-SNAPSHOT"
	SnapshotQualifier string
}

// DefaultScheme matches tags like release-1.2.3 and produces 1.2.4-SNAPSHOT
// snapshots.
var DefaultScheme = Scheme{
	TagPattern:        `^release-(\d+\.\d+\.\d+)$`,
	MatchGroup:        "$1",
	Splitter:          ".",
	SnapshotQualifier: "-SNAPSHOT",
}

// Options configures a Resolver
type Options struct {
	// Path is a working tree path; the .git directory is searched for from
	// here upwards. Ignored when Repository is set.
	Path string

	// Repository is an already opened repository. The resolver borrows it and
	// never releases it.
	Repository *git.Repository

	// TagOrder orders candidate release tags (default: LexicalOrder)
	TagOrder TagOrder

	// HeadLookup selects how the head commit is found (default: HeadFromRef)
	HeadLookup HeadLookup

	// Environment holds the CI signals for integration versions
	Environment Environment

	// Clock returns the current time (default: time.Now)
	Clock func() time.Time

	// Logger receives debug output (default: discarded)
	Logger *slog.Logger
}
