package triage

import (
	"time"

	"github.com/google/uuid"
)

const maxNotices = 20

// NoticeLevel indicates notice urgency.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a user-visible, dismissible message raised when a transition
// fails. Failures always recover locally first; the notice only informs.
type Notice struct {
	ID        string
	Level     NoticeLevel
	AlertID   string
	Message   string
	CreatedAt time.Time
}

// addNoticeLocked appends a notice, dropping the oldest beyond the cap.
func (c *Coordinator) addNoticeLocked(level NoticeLevel, alertID, message string) {
	c.notices = append(c.notices, Notice{
		ID:        uuid.New().String(),
		Level:     level,
		AlertID:   alertID,
		Message:   message,
		CreatedAt: c.now(),
	})
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
}

// Notices returns a copy of the active notices, oldest first.
func (c *Coordinator) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// DismissNotice removes one notice by id.
func (c *Coordinator) DismissNotice(id string) {
	c.mu.Lock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.notify()
}
