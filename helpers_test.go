package gitvers

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Now(),
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testRepoCommit adds a commit touching filename and returns its hash
func testRepoCommit(repo *git.Repository, filename string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	err = writeFile(workTree.Filesystem, filename, "Content for "+filename)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	_, err = workTree.Add(filename)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Commit "+filename, &git.CommitOptions{Author: testSignature})
}

// testRepoAnnotatedTag creates an annotated tag on commit
func testRepoAnnotatedTag(repo *git.Repository, name string, commit plumbing.Hash) error {
	_, err := repo.CreateTag(name, commit, &git.CreateTagOptions{
		Tagger:  testSignature,
		Message: "Release " + name,
	})
	return err
}

// testRepoWithTags creates one commit per tag, tagging each with an annotated
// tag, followed by one untagged commit. lightweight tags are added to the
// last tagged commit without a tag object.
func testRepoWithTags(repo *git.Repository, annotated, lightweight []string) (*git.Repository, error) {
	var last plumbing.Hash
	for _, tag := range annotated {
		hash, err := testRepoCommit(repo, "file_"+tag+".txt")
		if err != nil {
			return nil, err
		}

		if err := testRepoAnnotatedTag(repo, tag, hash); err != nil {
			return nil, err
		}
		last = hash
	}

	if last.IsZero() {
		hash, err := testRepoCommit(repo, "initial.txt")
		if err != nil {
			return nil, err
		}
		last = hash
	}

	for _, tag := range lightweight {
		if _, err := repo.CreateTag(tag, last, nil); err != nil {
			return nil, err
		}
	}

	if _, err := testRepoCommit(repo, "post-release.txt"); err != nil {
		return nil, err
	}

	return repo, nil
}

// testResolver creates a Resolver over an in-memory repository with the
// given tags
func testResolver(annotated, lightweight []string, opts Options) (*Resolver, *git.Repository, error) {
	repo, err := testRepoCreate()
	if err != nil {
		return nil, nil, err
	}

	repo, err = testRepoWithTags(repo, annotated, lightweight)
	if err != nil {
		return nil, nil, err
	}

	opts.Repository = repo
	resolver, err := NewResolver(opts)
	if err != nil {
		return nil, nil, err
	}

	return resolver, repo, nil
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
