package usecase

import (
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/service/github"
)

type UseCases struct {
	repo   interfaces.Repository
	github github.Service

	Connection *ConnectionUseCase
	Sync       *SyncUseCase
}

type Option func(*UseCases)

// WithGitHub attaches the GitHub service. Without it, connection management
// still works but sync and repository listing fail with
// ErrGitHubNotConfigured.
func WithGitHub(svc github.Service) Option {
	return func(uc *UseCases) {
		uc.github = svc
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Connection = NewConnectionUseCase(repo, uc.github)
	uc.Sync = NewSyncUseCase(repo, uc.github)

	return uc
}
