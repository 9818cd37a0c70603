package controllers

import (
	"github.com/zaqqye/institute_backend/internal/metrics"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/ws"
)

var eventKinds = map[string]string{
	ws.EventStudentCreated: "created",
	ws.EventStudentUpdated: "updated",
	ws.EventStudentDeleted: "deleted",
}

// publishStudent counts the write and pushes it to connected dashboards.
func publishStudent(hub *ws.DashboardHub, eventType string, st *models.Student) {
	if kind, ok := eventKinds[eventType]; ok {
		metrics.StudentEvents.WithLabelValues(kind).Inc()
	}
	if hub == nil || st == nil {
		return
	}
	ev := ws.Event{Type: eventType, StudentID: st.StudentID}
	if eventType != ws.EventStudentDeleted {
		ev.Student = st
	}
	hub.Broadcast(ev)
}
