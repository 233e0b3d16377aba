package model

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidRepoName is returned when the input cannot be parsed as a GitHub repository
var ErrInvalidRepoName = goerr.New("invalid GitHub repository name")

// namePattern matches a single GitHub owner or repository name segment
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ParseGitHubRepo extracts owner and repository from either "owner/repo" or a
// GitHub URL such as "https://github.com/owner/repo".
func ParseGitHubRepo(input string) (string, string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", "", ErrInvalidRepoName
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", "", goerr.Wrap(ErrInvalidRepoName, "unparsable URL", goerr.V("input", input))
		}
		host := u.Hostname()
		if host != "github.com" && host != "www.github.com" {
			return "", "", goerr.Wrap(ErrInvalidRepoName, "not a GitHub URL", goerr.V("host", host))
		}
		input = strings.Trim(u.Path, "/")
	}

	parts := strings.Split(input, "/")
	if len(parts) < 2 {
		return "", "", goerr.Wrap(ErrInvalidRepoName, "expected owner/repo", goerr.V("input", input))
	}

	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")
	if !namePattern.MatchString(owner) || !namePattern.MatchString(repo) {
		return "", "", goerr.Wrap(ErrInvalidRepoName, "invalid name segment", goerr.V("input", input))
	}

	return owner, repo, nil
}
