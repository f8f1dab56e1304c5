// Package youtubeapi wraps the YouTube Data API v3 for live-stream metadata:
// resolving a video URL to its live status, reading statistics for previews,
// and searching currently-live videos. Authentication is a plain API key.
package youtubeapi

import (
	"context"
	"fmt"
	"regexp"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/live-relay/stream"
	"github.com/onnwee/live-relay/telemetry"
)

// Accepted URL shapes: watch-page link, short link, embed link. Anything else
// is rejected as InvalidURL.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]+)`),
}

// Statistics is the numeric snapshot used by stream previews.
type Statistics struct {
	ViewCount     uint64 `json:"view_count"`
	LikeCount     uint64 `json:"like_count"`
	CommentCount  uint64 `json:"comment_count"`
	FavoriteCount uint64 `json:"favorite_count"`
}

// Service is the video-metadata capability. Extra client options (custom
// endpoint, http client) are accepted for tests.
type Service struct {
	apiKey string
	opts   []option.ClientOption
}

func New(apiKey string, opts ...option.ClientOption) *Service {
	return &Service{apiKey: apiKey, opts: opts}
}

func (s *Service) client(ctx context.Context) (*yt.Service, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(s.apiKey)}, s.opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: youtube client: %v", stream.ErrUpstream, err)
	}
	return svc, nil
}

// ExtractVideoID pulls the video identifier out of a YouTube URL.
func ExtractVideoID(url string) (string, error) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %s", stream.ErrInvalidURL, url)
}

// ResolveLive fetches snippet and live-streaming details for the video behind
// url. Presence of liveStreamingDetails marks the video live and populates
// start time, viewer count, and chat id; absence leaves is_live=false.
// Transport or quota failures surface as Upstream, never silently defaulted.
func (s *Service) ResolveLive(ctx context.Context, url string) (stream.Metadata, error) {
	videoID, err := ExtractVideoID(url)
	if err != nil {
		return stream.Metadata{}, err
	}

	svc, err := s.client(ctx)
	if err != nil {
		return stream.Metadata{}, err
	}

	var res *yt.VideoListResponse
	telemetry.TimeFunc(telemetry.ResolveDuration, func() {
		res, err = svc.Videos.List([]string{"snippet", "liveStreamingDetails"}).
			Id(videoID).Context(ctx).Do()
	})
	if err != nil {
		return stream.Metadata{}, fmt.Errorf("%w: videos.list: %v", stream.ErrUpstream, err)
	}
	if len(res.Items) == 0 {
		return stream.Metadata{}, fmt.Errorf("%w: video %s", stream.ErrNotFound, videoID)
	}

	v := res.Items[0]
	md := stream.Metadata{
		VideoID: videoID,
		URL:     "https://www.youtube.com/watch?v=" + videoID,
	}
	if v.Snippet != nil {
		md.Title = v.Snippet.Title
		md.Description = v.Snippet.Description
		md.ChannelTitle = v.Snippet.ChannelTitle
		md.PublishedAt = v.Snippet.PublishedAt
	}
	if v.LiveStreamingDetails != nil {
		md.IsLive = true
		md.LiveStartTime = v.LiveStreamingDetails.ActualStartTime
		md.LiveEndTime = v.LiveStreamingDetails.ActualEndTime
		md.ConcurrentViewers = v.LiveStreamingDetails.ConcurrentViewers
		md.LiveChatID = v.LiveStreamingDetails.ActiveLiveChatId
	}
	return md, nil
}

// Statistics fetches the statistics part for the video behind url.
func (s *Service) Statistics(ctx context.Context, url string) (Statistics, error) {
	videoID, err := ExtractVideoID(url)
	if err != nil {
		return Statistics{}, err
	}

	svc, err := s.client(ctx)
	if err != nil {
		return Statistics{}, err
	}

	res, err := svc.Videos.List([]string{"statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return Statistics{}, fmt.Errorf("%w: videos.list statistics: %v", stream.ErrUpstream, err)
	}
	if len(res.Items) == 0 {
		return Statistics{}, fmt.Errorf("%w: video %s", stream.ErrNotFound, videoID)
	}

	st := res.Items[0].Statistics
	if st == nil {
		return Statistics{}, nil
	}
	return Statistics{
		ViewCount:     st.ViewCount,
		LikeCount:     st.LikeCount,
		CommentCount:  st.CommentCount,
		FavoriteCount: st.FavoriteCount,
	}, nil
}

// SearchLive queries currently-live videos matching query, ordered by view
// count descending, capped at maxResults. No matches is an empty slice, not
// an error.
func (s *Service) SearchLive(ctx context.Context, query string, maxResults int64) ([]stream.Metadata, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 50 {
		maxResults = 50
	}

	svc, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	res, err := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		EventType("live").
		Order("viewCount").
		MaxResults(maxResults).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: search.list: %v", stream.ErrUpstream, err)
	}

	out := make([]stream.Metadata, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		md := stream.Metadata{
			VideoID: item.Id.VideoId,
			URL:     "https://www.youtube.com/watch?v=" + item.Id.VideoId,
			IsLive:  true,
		}
		if item.Snippet != nil {
			md.Title = item.Snippet.Title
			md.Description = item.Snippet.Description
			md.ChannelTitle = item.Snippet.ChannelTitle
			md.PublishedAt = item.Snippet.PublishedAt
		}
		out = append(out, md)
	}
	return out, nil
}
