package service

import (
	"context"

	"github.com/jobquest/jobquest/internal/model"
)

// StoryStore is the persistence needed by StoryService.
type StoryStore interface {
	ListStories(ctx context.Context) ([]model.Story, error)
}

// StoryService serves public success stories.
type StoryService struct {
	store StoryStore
}

// NewStoryService creates a new StoryService.
func NewStoryService(store StoryStore) *StoryService {
	return &StoryService{store: store}
}

// List returns all stories.
func (s *StoryService) List(ctx context.Context) ([]model.Story, error) {
	return s.store.ListStories(ctx)
}
