package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
)

func TestParseGitHubRepo(t *testing.T) {
	t.Run("parses owner/repo form", func(t *testing.T) {
		owner, repo, err := model.ParseGitHubRepo("acme/widgets")
		gt.NoError(t, err).Required()
		gt.Value(t, owner).Equal("acme")
		gt.Value(t, repo).Equal("widgets")
	})

	t.Run("parses GitHub URL", func(t *testing.T) {
		owner, repo, err := model.ParseGitHubRepo("https://github.com/acme/widgets")
		gt.NoError(t, err).Required()
		gt.Value(t, owner).Equal("acme")
		gt.Value(t, repo).Equal("widgets")
	})

	t.Run("parses URL with trailing path", func(t *testing.T) {
		owner, repo, err := model.ParseGitHubRepo("https://github.com/acme/widgets/releases")
		gt.NoError(t, err).Required()
		gt.Value(t, owner).Equal("acme")
		gt.Value(t, repo).Equal("widgets")
	})

	t.Run("strips .git suffix", func(t *testing.T) {
		_, repo, err := model.ParseGitHubRepo("acme/widgets.git")
		gt.NoError(t, err).Required()
		gt.Value(t, repo).Equal("widgets")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, _, err := model.ParseGitHubRepo("")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidRepoName)).True()
	})

	t.Run("rejects non-GitHub URL", func(t *testing.T) {
		_, _, err := model.ParseGitHubRepo("https://gitlab.com/acme/widgets")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidRepoName)).True()
	})

	t.Run("rejects bare owner", func(t *testing.T) {
		_, _, err := model.ParseGitHubRepo("acme")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidRepoName)).True()
	})
}
