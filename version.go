package gitvers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampLayout formats UTC times like 20140415215719
	TimestampLayout = "20060102150405"

	shortCommitLen = 7
)

var pipelineCounterRe = regexp.MustCompile(`^[0-9]+$`)

// BuildVersion finds the latest release tag matching scheme.TagPattern and
// returns its version when release is true, or the next snapshot version
// otherwise.
func (r *Resolver) BuildVersion(scheme Scheme, release bool) (string, error) {
	tag, found, err := r.LatestReleaseTag(scheme.TagPattern)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w matching %q", ErrNoReleaseTag, scheme.TagPattern)
	}

	if release {
		return ReleaseVersion(tag, scheme.TagPattern, scheme.MatchGroup)
	}

	return NextSnapshotVersion(tag, scheme.TagPattern, scheme.MatchGroup,
		scheme.Splitter, scheme.SnapshotQualifier)
}

// ReleaseVersion extracts the version from a release tag by expanding
// matchGroup (e.g. "$1") against the capture groups of pattern.
//
//	ReleaseVersion("release-1.2.3", `^release-(\d+\.\d+\.\d+)$`, "$1") // "1.2.3"
func ReleaseVersion(tag, pattern, matchGroup string) (string, error) {
	return extractVersion(tag, pattern, matchGroup)
}

// NextSnapshotVersion extracts the version from a release tag, increments its
// last splitter separated component and appends qualifier.
//
//	NextSnapshotVersion("release-1.0.14", `^release-(\d+\.\d+\.\d+)$`, "$1", ".", "-SNAPSHOT") // "1.0.15-SNAPSHOT"
func NextSnapshotVersion(tag, pattern, matchGroup, splitter, qualifier string) (string, error) {
	version, err := extractVersion(tag, pattern, matchGroup)
	if err != nil {
		return "", err
	}

	if splitter == "" {
		return "", ErrEmptySplitter
	}

	components := strings.Split(version, splitter)
	last := components[len(components)-1]

	n, err := strconv.ParseUint(last, 10, 64)
	if err == nil && n == ^uint64(0) {
		err = strconv.ErrRange
	}
	if err != nil {
		return "", &MalformedVersionError{Version: version, Component: last, Err: err}
	}

	components[len(components)-1] = strconv.FormatUint(n+1, 10)

	return strings.Join(components, splitter) + qualifier, nil
}

// FormatTimestamp formats t in UTC as 14 digits, yyyyMMddHHmmss.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Timestamp returns the resolver's current time formatted by FormatTimestamp.
func (r *Resolver) Timestamp() string {
	return FormatTimestamp(r.clock())
}

// IntegrationVersion returns a build identifier of the form
// <prefix>_git<short commit>. The prefix is "snap" followed by the pipeline
// counter when running in CI, otherwise the current UTC timestamp.
func (r *Resolver) IntegrationVersion() (string, error) {
	prefix := r.integrationPrefix()

	id, err := r.HeadCommit()
	if err != nil {
		return "", err
	}

	short, err := shortCommitID(id)
	if err != nil {
		return "", err
	}

	return prefix + "_git" + short, nil
}

func (r *Resolver) integrationPrefix() string {
	if r.env.CI == "true" && pipelineCounterRe.MatchString(r.env.PipelineCounter) {
		return "snap" + r.env.PipelineCounter
	}

	if r.env.CI == "true" {
		r.log.Debug("ignoring invalid pipeline counter", "counter", r.env.PipelineCounter)
	}

	return r.Timestamp()
}

func shortCommitID(id string) (string, error) {
	if len(id) < shortCommitLen {
		return "", fmt.Errorf("%w: %q", ErrShortCommitID, id)
	}
	return id[:shortCommitLen], nil
}
