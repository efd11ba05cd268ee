package providers

import (
	"context"

	"trainalert.app/models"
	"trainalert.app/providers/cache"
)

// RouteSource defines the interface for external train route sources
type RouteSource interface {
	Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error)
}

// Notifier defines the interface for message delivery to chat users
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Cache is an alias to avoid circular imports
type Cache = cache.Cache
