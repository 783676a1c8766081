package reddit

import (
	"context"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/model"
)

// streamPageSize is how many comments each stream poll requests.
const streamPageSize = 100

// CommentStream is a lazy, effectively infinite sequence of new comments in
// a subreddit, delivered oldest first. It polls the comment listing with a
// moving anchor; comments that existed before the stream started are
// skipped.
type CommentStream struct {
	client    *Client
	subreddit string
	interval  time.Duration

	primed bool
	before string
	queue  []model.Item
}

// StreamComments opens a comment stream over the subreddit. interval is the
// idle wait between polls that return nothing new.
func (c *Client) StreamComments(subreddit string, interval time.Duration) *CommentStream {
	return &CommentStream{
		client:    c,
		subreddit: subreddit,
		interval:  interval,
	}
}

// Next blocks until a new comment arrives, the context is cancelled, or a
// poll fails. Poll errors are returned to the caller; the stream remains
// usable afterwards.
func (s *CommentStream) Next(ctx context.Context) (model.Item, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.Item{}, err
		}

		if len(s.queue) > 0 {
			it := s.queue[0]
			s.queue = s.queue[1:]
			return it, nil
		}

		if !s.primed {
			if err := s.prime(ctx); err != nil {
				return model.Item{}, err
			}
			continue
		}

		page, err := s.client.listComments(ctx, s.subreddit, streamPageSize, s.before)
		if err != nil {
			return model.Item{}, err
		}
		if len(page) == 0 {
			select {
			case <-ctx.Done():
				return model.Item{}, ctx.Err()
			case <-time.After(s.interval):
			}
			continue
		}

		// The listing is newest first; deliver oldest first.
		s.before = page[0].Fullname()
		for i := len(page) - 1; i >= 0; i-- {
			s.queue = append(s.queue, page[i])
		}
	}
}

// prime records the newest existing comment so the stream only yields
// comments posted after it was opened.
func (s *CommentStream) prime(ctx context.Context) error {
	page, err := s.client.listComments(ctx, s.subreddit, 1, "")
	if err != nil {
		return err
	}
	if len(page) > 0 {
		s.before = page[0].Fullname()
	}
	s.primed = true
	return nil
}
