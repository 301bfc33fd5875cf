package client

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

const DefaultNotificationTTL = 5 * time.Second

type Notification struct {
	ID         uint64
	Text       string
	Actionable bool
	// Request is the sender of the chat request an actionable item is bound to.
	Request string
}

// Scheduler runs f once after d. The returned stop function cancels it and
// reports whether it was still pending.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func timerScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type pendingNotification struct {
	Notification
	stop func() bool
}

// Notifications is a FIFO of transient and actionable items, oldest first.
// Transient items expire after ttl; actionable ones stay until handled.
type Notifications struct {
	items    []*pendingNotification
	nextID   uint64
	ttl      time.Duration
	schedule Scheduler
	onExpire func(id uint64)
}

// NewNotifications creates the queue. onExpire is called from the timer
// goroutine and must hand the id back to the owner, which then calls Expire.
func NewNotifications(ttl time.Duration, schedule Scheduler, onExpire func(id uint64)) *Notifications {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	if schedule == nil {
		schedule = timerScheduler
	}
	return &Notifications{ttl: ttl, schedule: schedule, onExpire: onExpire}
}

// Push adds an informational item that expires on its own.
func (n *Notifications) Push(text string) Notification {
	n.nextID++
	item := &pendingNotification{Notification: Notification{ID: n.nextID, Text: text}}
	id := item.ID
	item.stop = n.schedule(n.ttl, func() {
		if n.onExpire != nil {
			n.onExpire(id)
		}
	})
	n.items = append(n.items, item)
	return item.Notification
}

// PushRequest adds an actionable item for a chat request from sender.
// An older request item from the same sender is discarded.
func (n *Notifications) PushRequest(sender string) Notification {
	n.DismissRequest(sender)

	n.nextID++
	item := &pendingNotification{Notification: Notification{
		ID:         n.nextID,
		Text:       fmt.Sprintf("%s wants to chat with you", sender),
		Actionable: true,
		Request:    sender,
	}}
	n.items = append(n.items, item)
	return item.Notification
}

// Dismiss removes any item and stops its expiry timer.
func (n *Notifications) Dismiss(id uint64) bool {
	_, idx, ok := lo.FindIndexOf(n.items, func(item *pendingNotification) bool {
		return item.ID == id
	})
	if !ok {
		return false
	}
	if stop := n.items[idx].stop; stop != nil {
		stop()
	}
	n.items = append(n.items[:idx], n.items[idx+1:]...)
	return true
}

// DismissRequest removes the actionable item bound to sender, if any.
func (n *Notifications) DismissRequest(sender string) bool {
	item, ok := n.FindRequest(sender)
	if !ok {
		return false
	}
	return n.Dismiss(item.ID)
}

// Expire removes a transient item whose timer fired. Expiring an item that
// is already gone or actionable is a no-op.
func (n *Notifications) Expire(id uint64) bool {
	_, idx, ok := lo.FindIndexOf(n.items, func(item *pendingNotification) bool {
		return item.ID == id && !item.Actionable
	})
	if !ok {
		return false
	}
	n.items = append(n.items[:idx], n.items[idx+1:]...)
	return true
}

func (n *Notifications) FindRequest(sender string) (Notification, bool) {
	item, ok := lo.Find(n.items, func(item *pendingNotification) bool {
		return item.Actionable && item.Request == sender
	})
	if !ok {
		return Notification{}, false
	}
	return item.Notification, true
}

// List returns the items oldest first.
func (n *Notifications) List() []Notification {
	return lo.Map(n.items, func(item *pendingNotification, _ int) Notification {
		return item.Notification
	})
}
