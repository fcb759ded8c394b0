// This file contains code adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0.

package gitvers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// Resolver answers version questions about one repository. Every operation
// acquires its own repository handle and releases it before returning, so
// results always reflect the repository's current tags.
type Resolver struct {
	path       string
	repo       *git.Repository
	order      TagOrder
	headLookup HeadLookup
	env        Environment
	clock      func() time.Time
	log        *slog.Logger
}

// NewResolver creates a Resolver from opts
func NewResolver(opts Options) (*Resolver, error) {
	if opts.Repository == nil && opts.Path == "" {
		return nil, ErrNoRepository
	}

	r := &Resolver{
		path:       opts.Path,
		repo:       opts.Repository,
		order:      opts.TagOrder,
		headLookup: opts.HeadLookup,
		env:        opts.Environment,
		clock:      opts.Clock,
		log:        opts.Logger,
	}

	if r.order == nil {
		r.order = LexicalOrder
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.log == nil {
		r.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return r, nil
}

// withRepository runs fn with a repository handle that is released on every
// exit path. Borrowed repositories are not released.
func (r *Resolver) withRepository(fn func(*git.Repository) error) (err error) {
	if r.repo != nil {
		return fn(r.repo)
	}

	repo, err := OpenRepository(r.path)
	if err != nil {
		return fmt.Errorf("opening repository %q: %w", r.path, err)
	}

	defer func() {
		closer, ok := repo.Storer.(io.Closer)
		if !ok {
			return
		}
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing repository: %w", cerr)
		}
	}()

	return fn(repo)
}

// LatestReleaseTag returns the greatest annotated tag, under the resolver's
// TagOrder, whose short name fully matches pattern. found is false when no
// tag matches.
func (r *Resolver) LatestReleaseTag(pattern string) (tag string, found bool, err error) {
	re, err := compileTagPattern(pattern)
	if err != nil {
		return "", false, err
	}

	var candidates []string
	err = r.withRepository(func(repo *git.Repository) error {
		names, err := annotatedTags(repo, r.log)
		if err != nil {
			return err
		}
		for _, name := range names {
			if re.MatchString(name) {
				candidates = append(candidates, name)
			}
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}

	r.log.Debug("release tag candidates", "pattern", pattern, "count", len(candidates))
	if len(candidates) == 0 {
		return "", false, nil
	}

	slices.SortFunc(candidates, r.order)
	latest := candidates[len(candidates)-1]
	r.log.Debug("latest release tag", "tag", latest)

	return latest, true, nil
}

// annotatedTags returns the short names of all annotated tags in repo.
func annotatedTags(repo *git.Repository, log *slog.Logger) ([]string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer tags.Close()

	var names []string
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		target := ref.Hash()
		if ref.Type() != plumbing.HashReference {
			resolved, err := repo.Reference(name, true)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", name, err)
			}
			target = resolved.Hash()
		}

		_, err := repo.TagObject(target)
		switch {
		case err == nil:
			names = append(names, name.Short())
		case errors.Is(err, plumbing.ErrObjectNotFound):
			// Lightweight tag
			log.Debug("skipping lightweight tag", "tag", name.Short())
		default:
			return fmt.Errorf("reading tag %s: %w", name, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

// HeadCommit returns the full id of the head commit, found as configured by
// Options.HeadLookup.
func (r *Resolver) HeadCommit() (string, error) {
	var id string
	err := r.withRepository(func(repo *git.Repository) error {
		var hash plumbing.Hash
		var err error

		switch r.headLookup {
		case HeadFromLog:
			hash, err = firstLoggedCommit(repo)
		default:
			hash, err = headRef(repo)
		}
		if err != nil {
			return err
		}

		id = hash.String()
		return nil
	})
	if err != nil {
		return "", err
	}

	r.log.Debug("head commit", "lookup", r.headLookup, "commit", id)
	return id, nil
}

func headRef(repo *git.Repository) (plumbing.Hash, error) {
	head, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Hash(), nil
}

func firstLoggedCommit(repo *git.Repository) (plumbing.Hash, error) {
	commits, err := repo.Log(&git.LogOptions{All: true})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("walking history: %w", err)
	}
	defer commits.Close()

	var commit *object.Commit
	commit, err = commits.Next()
	if errors.Is(err, io.EOF) {
		return plumbing.ZeroHash, fmt.Errorf("walking history: %w", plumbing.ErrReferenceNotFound)
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("walking history: %w", err)
	}

	return commit.Hash, nil
}
