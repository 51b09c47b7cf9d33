package session

import (
	"context"
	"errors"
)

var ErrForeignSession = errors.New("session id does not belong to this store")

// State is what a conversation remembers between turns. Display values are
// spoken back to the user; the *ID fields are what the backend matches on.
type State struct {
	Username string `json:"username,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Site     string `json:"site,omitempty"`
	SiteID   string `json:"site_id,omitempty"`
}

// Update is merged key by key: empty fields leave the stored value as is.
type Update State

func (s State) HasUser() bool { return s.Username != "" && s.UserID != "" }
func (s State) HasSite() bool { return s.Site != "" && s.SiteID != "" }

// Merge returns s with every non-empty field of u applied.
func (s State) Merge(u Update) State {
	if u.Username != "" {
		s.Username = u.Username
	}
	if u.UserID != "" {
		s.UserID = u.UserID
	}
	if u.Site != "" {
		s.Site = u.Site
	}
	if u.SiteID != "" {
		s.SiteID = u.SiteID
	}
	return s
}

// Empty reports whether applying u would change nothing.
func (u Update) Empty() bool { return u == Update{} }

// Store is the one capability both conversational bindings need. MemoryStore
// keeps state server-side; AttributeStore round-trips it through the
// request envelope.
type Store interface {
	Get(ctx context.Context, id string) (State, error)
	Set(ctx context.Context, id string, u Update) error
	Clear(ctx context.Context, id string) error
}
