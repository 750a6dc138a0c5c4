package dto

import (
	"reminder/internal/domain/constant"
	"reminder/internal/domain/entity"
	"time"
)

// ReminderItem is the list row projection of a reminder.
type ReminderItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Date     string `json:"date"` // formatted with constant.DisplayDateLayout, empty when undated
	HasImage bool   `json:"has_image"`
	Expired  bool   `json:"expired"`
}

// ToReminderItem converts an entity.Reminder to a ReminderItem as of asOf.
func ToReminderItem(r entity.Reminder, asOf time.Time) ReminderItem {
	item := ReminderItem{
		ID:       r.Identifier,
		Title:    r.TitleText(),
		Content:  r.ContentText(),
		HasImage: r.HasImage(),
		Expired:  r.IsExpired(asOf),
	}
	if r.Date != nil {
		item.Date = r.Date.Local().Format(constant.DisplayDateLayout)
	}
	return item
}

// ToReminderItemList converts reminders to list rows.
func ToReminderItemList(reminders []entity.Reminder, asOf time.Time) []ReminderItem {
	list := make([]ReminderItem, len(reminders))
	for i, r := range reminders {
		list[i] = ToReminderItem(r, asOf)
	}
	return list
}

// ReminderDetail is the DTO for a single reminder, image included.
type ReminderDetail struct {
	ID        string     `json:"id"`
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	ImageData []byte     `json:"image_data,omitempty"`
	Date      *time.Time `json:"date"`
	Expired   bool       `json:"expired"`
}

// ToReminderDetail converts an entity.Reminder to a ReminderDetail DTO.
func ToReminderDetail(r *entity.Reminder, asOf time.Time) ReminderDetail {
	return ReminderDetail{
		ID:        r.Identifier,
		Title:     r.Title,
		Content:   r.Content,
		ImageData: r.ImageData,
		Date:      r.Date,
		Expired:   r.IsExpired(asOf),
	}
}

// ToReminderDetailList converts reminders to detail DTOs.
func ToReminderDetailList(reminders []*entity.Reminder, asOf time.Time) []ReminderDetail {
	list := make([]ReminderDetail, len(reminders))
	for i, r := range reminders {
		list[i] = ToReminderDetail(r, asOf)
	}
	return list
}

// SaveReminderRequest is the DTO for creating or replacing a reminder.
// Fields left out of a create request take the new-reminder defaults.
type SaveReminderRequest struct {
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	ImageData []byte     `json:"image_data"`
	Date      *time.Time `json:"date"`
	ClearDate bool       `json:"clear_date"` // store the reminder undated
}

// ToEntity builds a draft on top of base, which supplies the identifier and
// the values of fields the request leaves out.
func (req SaveReminderRequest) ToEntity(base entity.Reminder) entity.Reminder {
	draft := base.Clone()
	draft.Title = req.Title
	if req.Content != nil {
		draft.Content = req.Content
	}
	if req.ImageData != nil {
		draft.ImageData = req.ImageData
	}
	switch {
	case req.ClearDate:
		draft.Date = nil
	case req.Date != nil:
		draft.Date = req.Date
	}
	return draft
}

// NotificationsResponse lists the scheduler state.
type NotificationsResponse struct {
	Pending   []entity.Notification `json:"pending"`
	Delivered []entity.Notification `json:"delivered"`
}

// StatusResponse carries the current status message and list summary.
type StatusResponse struct {
	Message    string `json:"message"`
	Reminders  int    `json:"reminders"`
	HasExpired bool   `json:"has_expired"`
}
