package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reminder/internal/application/dto"
	"reminder/internal/application/service"
	"reminder/internal/domain/entity"
	appErrors "reminder/internal/pkg/errors"
	"reminder/internal/pkg/logger"
	"time"

	"github.com/labstack/echo/v4"
)

// ReminderHandler serves the local reminders API.
type ReminderHandler struct {
	reminderService service.ReminderService
	scheduler       service.NotificationScheduler
	log             logger.Logger
	now             func() time.Time
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(
	reminderService service.ReminderService,
	scheduler service.NotificationScheduler,
	log logger.Logger,
) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		scheduler:       scheduler,
		log:             logger.OrNop(log),
		now:             time.Now,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// List handles GET /reminders?q=.
// With detail=1 the full reminders are returned, images included.
func (h *ReminderHandler) List(c echo.Context) error {
	reminders, err := h.reminderService.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.writeError(c, err)
	}
	if c.QueryParam("detail") == "1" {
		return c.JSON(http.StatusOK, dto.ToReminderDetailList(reminders, h.now()))
	}
	return c.JSON(http.StatusOK, dto.ToReminderItemList(values(reminders), h.now()))
}

// Get handles GET /reminders/:id.
func (h *ReminderHandler) Get(c echo.Context) error {
	reminder, err := h.reminderService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToReminderDetail(reminder, h.now()))
}

// Create handles POST /reminders. Omitted fields take the new-reminder defaults.
func (h *ReminderHandler) Create(c echo.Context) error {
	var req dto.SaveReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	draft := req.ToEntity(entity.NewReminder(h.now()))
	if err := h.reminderService.Save(c.Request().Context(), draft); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.ToReminderDetail(&draft, h.now()))
}

// Replace handles PUT /reminders/:id as a full replace of an existing reminder.
func (h *ReminderHandler) Replace(c echo.Context) error {
	var req dto.SaveReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	draft := req.ToEntity(entity.Reminder{Identifier: c.Param("id")})
	if err := h.reminderService.Update(c.Request().Context(), draft); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToReminderDetail(&draft, h.now()))
}

// Delete handles DELETE /reminders/:id.
func (h *ReminderHandler) Delete(c echo.Context) error {
	if err := h.reminderService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll handles DELETE /reminders.
func (h *ReminderHandler) DeleteAll(c echo.Context) error {
	if err := h.reminderService.DeleteAll(c.Request().Context()); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteExpired handles DELETE /reminders/expired and returns the survivors.
func (h *ReminderHandler) DeleteExpired(c echo.Context) error {
	remaining, err := h.reminderService.DeleteExpired(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToReminderItemList(values(remaining), h.now()))
}

// Notifications handles GET /notifications.
func (h *ReminderHandler) Notifications(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NotificationsResponse{
		Pending:   h.scheduler.Pending(),
		Delivered: h.scheduler.Delivered(),
	})
}

// NotificationOpened handles POST /notifications/opened.
func (h *ReminderHandler) NotificationOpened(c echo.Context) error {
	h.reminderService.NotifyExternalChange(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Status handles GET /status.
func (h *ReminderHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.StatusResponse{
		Message:    h.reminderService.Status().Value(),
		Reminders:  len(h.reminderService.Reminders().Value()),
		HasExpired: h.reminderService.HasExpired(),
	})
}

func (h *ReminderHandler) writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case appErrors.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case appErrors.IsNotFound(err):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		h.log.Error(fmt.Sprintf("Request %s %s failed", c.Request().Method, c.Path()), err)
	}
	return c.JSON(status, ErrorResponse{Error: publicMessage(err)})
}

// publicMessage strips storage detail from err.
func publicMessage(err error) string {
	for _, sentinel := range []error{
		appErrors.ErrEmptyTitle,
		appErrors.ErrInvalidIdentifier,
		appErrors.ErrReminderNotFound,
		appErrors.ErrSaveFailed,
		appErrors.ErrDeleteFailed,
		appErrors.ErrDeleteAllFailed,
		appErrors.ErrDeleteExpiredFailed,
		appErrors.ErrFetchFailed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

func values(reminders []*entity.Reminder) []entity.Reminder {
	out := make([]entity.Reminder, len(reminders))
	for i, r := range reminders {
		out[i] = *r
	}
	return out
}
