package config

import "strings"

// EnvGithubRepository is the runner-provided variable holding "owner/repo".
const EnvGithubRepository = "GITHUB_REPOSITORY"

// ParseRepo splits an "owner/repo" string on the first slash.
func ParseRepo(s string) (GithubRepo, error) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" {
		return GithubRepo{}, &MalformedValueError{Key: EnvGithubRepository, Value: s, Reason: "expected owner/repo"}
	}
	return GithubRepo{Owner: owner, Repo: repo}, nil
}
