package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReminderDefaultsToTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 28, 9, 30, 0, 0, time.UTC)
	r := NewReminder(now)

	require.NotEmpty(t, r.Identifier)
	require.NotNil(t, r.Date)
	assert.Equal(t, time.Date(2026, 3, 29, 9, 30, 0, 0, time.UTC), *r.Date)
	assert.Nil(t, r.Title)
	assert.Nil(t, r.Content)
	assert.False(t, r.HasImage())

	other := NewReminder(now)
	assert.NotEqual(t, r.Identifier, other.Identifier)
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	assert.False(t, Reminder{}.IsExpired(now), "undated reminders never expire")
	assert.True(t, Reminder{Date: TimePtr(now.Add(-time.Second))}.IsExpired(now))
	assert.False(t, Reminder{Date: TimePtr(now)}.IsExpired(now), "equal to now is not expired")
	assert.False(t, Reminder{Date: TimePtr(now.Add(time.Second))}.IsExpired(now))
}

func TestIsComparesIdentifierOnly(t *testing.T) {
	a := Reminder{Identifier: "x", Title: StringPtr("one")}
	b := Reminder{Identifier: "x", Title: StringPtr("two")}
	c := Reminder{Identifier: "y", Title: StringPtr("one")}

	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
}

func TestMatches(t *testing.T) {
	milk := Reminder{Title: StringPtr("Buy milk")}
	mom := Reminder{Title: StringPtr("Call mom"), Content: StringPtr("about Sunday")}

	assert.True(t, milk.Matches(""))
	assert.True(t, milk.Matches("milk"))
	assert.False(t, milk.Matches("Milk"), "match is case-sensitive")
	assert.True(t, mom.Matches("Sunday"))
	assert.False(t, mom.Matches("milk"))
	assert.False(t, Reminder{}.Matches("a"))
}

func TestNotification(t *testing.T) {
	at := time.Now().Add(time.Hour)

	_, ok := Reminder{Identifier: "a", Date: &at}.Notification()
	assert.False(t, ok, "no title")

	_, ok = Reminder{Identifier: "a", Title: StringPtr("t")}.Notification()
	assert.False(t, ok, "no date")

	n, ok := Reminder{Identifier: "a", Title: StringPtr("t"), Date: &at}.Notification()
	require.True(t, ok)
	assert.Equal(t, Notification{Identifier: "a", Title: "t", Body: "", FireAt: at}, n)
}

func TestCloneIsDeep(t *testing.T) {
	orig := Reminder{
		Identifier: "a",
		Title:      StringPtr("t"),
		Content:    StringPtr("c"),
		ImageData:  []byte{1, 2, 3},
		Date:       TimePtr(time.Now()),
	}
	c := orig.Clone()
	*c.Title = "changed"
	c.ImageData[0] = 9

	assert.Equal(t, "t", *orig.Title)
	assert.Equal(t, byte(1), orig.ImageData[0])
	assert.Nil(t, Reminder{}.Clone().ImageData)
}
