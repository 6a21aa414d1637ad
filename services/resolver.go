package services

import (
	"context"
	"fmt"

	"mashup/types"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Resolver turns a query into an ordered list of watchable videos.
// It may return fewer results than asked for, and an empty list is not
// an error.
type Resolver interface {
	Resolve(ctx context.Context, query string, maxResults int) ([]types.Video, error)
}

// YouTubeResolver implements Resolver against the YouTube Data API v3.
type YouTubeResolver struct {
	svc *youtube.Service
}

// NewYouTubeResolver creates a resolver authenticated with an API key.
func NewYouTubeResolver(ctx context.Context, apiKey string) (*YouTubeResolver, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTubeResolver{svc: svc}, nil
}

// Resolve performs a video search and returns (title, url) pairs in
// API ranking order.
func (r *YouTubeResolver) Resolve(ctx context.Context, query string, maxResults int) ([]types.Video, error) {
	call := r.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(maxResults)).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", query, err)
	}

	videos := make([]types.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		videos = append(videos, types.Video{
			Title: item.Snippet.Title,
			URL:   fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.Id.VideoId),
		})
	}

	return videos, nil
}

var _ Resolver = (*YouTubeResolver)(nil)
