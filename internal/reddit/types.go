package reddit

import (
	"encoding/json"

	"github.com/kiranze/FPVNoobBot/internal/model"
)

// tokenResponse is the OAuth2 password-grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error,omitempty"`
}

// listing is the common envelope around /new and /comments responses.
type listing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"data"`
}

// postData is the subset of a t3 record the bot needs.
type postData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Selftext  string `json:"selftext"`
	Permalink string `json:"permalink"`
	Author    string `json:"author"`
}

func (p postData) item() model.Item {
	return model.Item{
		ID:        p.ID,
		Kind:      model.KindPost,
		Title:     p.Title,
		Body:      p.Selftext,
		Permalink: p.Permalink,
		Author:    normalizeAuthor(p.Author),
	}
}

// commentData is the subset of a t1 record the bot needs.
type commentData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	Permalink string `json:"permalink"`
	Author    string `json:"author"`
	ParentID  string `json:"parent_id"`
	LinkID    string `json:"link_id"`
}

func (c commentData) item() model.Item {
	return model.Item{
		ID:        c.ID,
		Kind:      model.KindComment,
		Body:      c.Body,
		Permalink: c.Permalink,
		Author:    normalizeAuthor(c.Author),
		ParentID:  c.ParentID,
		LinkID:    c.LinkID,
	}
}

// normalizeAuthor maps the API's "[deleted]" placeholder to an empty author.
func normalizeAuthor(a string) string {
	if a == "[deleted]" {
		return ""
	}
	return a
}
