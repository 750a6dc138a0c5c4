package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reminder represents a user reminder. Identifier is the only identity key.
type Reminder struct {
	Identifier string     `gorm:"column:identifier;primaryKey"`
	Title      *string    `gorm:"column:title"`
	Content    *string    `gorm:"column:content;type:text"`
	ImageData  []byte     `gorm:"column:image_data"`
	Date       *time.Time `gorm:"column:date;index"`
}

// TableName specifies the table name for the Reminder entity.
func (Reminder) TableName() string {
	return "reminders"
}

// NewReminder returns an unsaved draft with a fresh identifier and a due date
// of tomorrow at the same time of day.
func NewReminder(now time.Time) Reminder {
	tomorrow := now.AddDate(0, 0, 1)
	return Reminder{
		Identifier: uuid.NewString(),
		Date:       &tomorrow,
	}
}

// Is reports whether r and other are the same reminder, regardless of field values.
func (r Reminder) Is(other Reminder) bool {
	return r.Identifier == other.Identifier
}

// IsExpired reports whether r has a due date strictly before asOf.
func (r Reminder) IsExpired(asOf time.Time) bool {
	return r.Date != nil && r.Date.Before(asOf)
}

// HasImage reports whether image bytes are attached.
func (r Reminder) HasImage() bool {
	return len(r.ImageData) > 0
}

// TitleText returns the title or "" when unset.
func (r Reminder) TitleText() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// ContentText returns the content or "" when unset.
func (r Reminder) ContentText() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

// Matches reports whether query is a case-sensitive substring of the title
// or the content. An empty query matches every reminder.
func (r Reminder) Matches(query string) bool {
	if query == "" {
		return true
	}
	if r.Title != nil && strings.Contains(*r.Title, query) {
		return true
	}
	return r.Content != nil && strings.Contains(*r.Content, query)
}

// Notification returns what the scheduler should deliver for r, and false
// when r has no title or no due date.
func (r Reminder) Notification() (Notification, bool) {
	if r.Title == nil || r.Date == nil {
		return Notification{}, false
	}
	return Notification{
		Identifier: r.Identifier,
		Title:      *r.Title,
		Body:       r.ContentText(),
		FireAt:     *r.Date,
	}, true
}

// Clone returns a deep copy so callers can't mutate shared state.
func (r Reminder) Clone() Reminder {
	c := Reminder{Identifier: r.Identifier}
	if r.Title != nil {
		t := *r.Title
		c.Title = &t
	}
	if r.Content != nil {
		s := *r.Content
		c.Content = &s
	}
	if r.ImageData != nil {
		c.ImageData = append([]byte(nil), r.ImageData...)
	}
	if r.Date != nil {
		d := *r.Date
		c.Date = &d
	}
	return c
}

// StringPtr is a helper for building optional text fields.
func StringPtr(s string) *string {
	return &s
}

// TimePtr is a helper for building optional dates.
func TimePtr(t time.Time) *time.Time {
	return &t
}
