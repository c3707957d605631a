package services

import (
	"event-management/internal/status"
	"event-management/models"
)

// Actions checked by authorize. They read as the tail of "only editors and admins can ...".
const (
	ActionCreateEvent = "create events"
	ActionUpdateEvent = "update events"
	ActionDeleteEvent = "delete events"
	ActionListAll     = "view all events"
	ActionViewStats   = "view event statistics"
)

// authorize is the single event management policy shared by every guarded operation.
func authorize(role models.Role, action string) error {
	if role.CanManageEvents() {
		return nil
	}
	return &status.PermissionError{Action: action}
}
