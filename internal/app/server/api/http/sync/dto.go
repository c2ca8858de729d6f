package sync

import "greenkeep/internal/domain/sync"

type pullInput struct {
	Body sync.PullRequest
}

type pullOutput struct {
	Body sync.PullResponse
}

type pushInput struct {
	Body sync.PushRequest
}

type pushOutput struct {
	Body *sync.PushResponse
}
