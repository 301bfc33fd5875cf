package client

import (
	"slices"

	"github.com/ejamakovic/chat-app-FE/internal/models"

	"github.com/samber/lo"
)

// Presence is the list of other participants currently shown as online.
// It never contains the own handle nor duplicates.
type Presence struct {
	self    string
	visible []string
}

func NewPresence(self string) *Presence {
	return &Presence{self: self}
}

// Reconcile replaces the visible list with the connected users of a full
// directory pull.
func (p *Presence) Reconcile(list []models.User) {
	p.visible = lo.Uniq(lo.FilterMap(list, func(u models.User, _ int) (string, bool) {
		return u.Username, u.Connected && u.Username != p.self && u.Username != ""
	}))
}

// OnJoin adds a participant announced over the channel. It reports whether
// the handle was new.
func (p *Presence) OnJoin(handle string) bool {
	if handle == "" || handle == p.self || slices.Contains(p.visible, handle) {
		return false
	}
	p.visible = append(p.visible, handle)
	return true
}

func (p *Presence) Contains(handle string) bool {
	return slices.Contains(p.visible, handle)
}

func (p *Presence) Visible() []string {
	return slices.Clone(p.visible)
}
