package alerts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fariasdev/mycar-sync/internal/models"
)

const dayMillis = 24 * 60 * 60 * 1000

// Generate derives the alert feed from the reconciled task lists. It is a
// pure function of its inputs: alerts are rebuilt from scratch on every
// call and identical inputs produce identical output. The result is ordered
// by level rank (CRITICAL first), ties broken by descending creation time.
func Generate(overdue, upcoming []models.MaintenanceTask, nowMillis int64) []models.VehicleAlert {
	alerts := make([]models.VehicleAlert, 0, len(overdue)+len(upcoming))

	for _, task := range overdue {
		alerts = append(alerts, overdueAlert(task, nowMillis))
	}
	for _, task := range upcoming {
		if alert, ok := upcomingAlert(task, nowMillis); ok {
			alerts = append(alerts, alert)
		}
	}

	if len(alerts) == 0 {
		alerts = append(alerts, allGoodAlert(nowMillis))
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Level.Rank() != alerts[j].Level.Rank() {
			return alerts[i].Level.Rank() < alerts[j].Level.Rank()
		}
		return alerts[i].CreatedAtMillis > alerts[j].CreatedAtMillis
	})
	return alerts
}

func overdueAlert(task models.MaintenanceTask, nowMillis int64) models.VehicleAlert {
	var daysLate int64
	if task.DueDateMillis != nil {
		daysLate = (nowMillis - *task.DueDateMillis) / dayMillis
		if daysLate < 0 {
			daysLate = 0
		}
	}

	level := models.AlertLevelImportant
	title := "Tarea vencida"
	if daysLate >= 7 {
		level = models.AlertLevelCritical
		title = "Tarea vencida crítica"
	}

	var message strings.Builder
	fmt.Fprintf(&message, "La tarea %q está vencida", task.Title)
	if daysLate > 0 {
		fmt.Fprintf(&message, " hace %d días", daysLate)
	}
	if task.DueMileageKm != nil {
		fmt.Fprintf(&message, " y estaba programada a los %d km", *task.DueMileageKm)
	}
	message.WriteString(". Atiéndela lo antes posible.")

	return models.VehicleAlert{
		ID:              "overdue_" + task.ID,
		Level:           level,
		Title:           title,
		Message:         message.String(),
		RelatedTaskID:   task.ID,
		CreatedAtMillis: nowMillis,
	}
}

func upcomingAlert(task models.MaintenanceTask, nowMillis int64) (models.VehicleAlert, bool) {
	if task.DueDateMillis == nil {
		return models.VehicleAlert{}, false
	}
	daysUntil := (*task.DueDateMillis - nowMillis) / dayMillis

	var level models.AlertLevel
	var title string
	switch {
	case daysUntil >= 0 && daysUntil <= 7:
		level = models.AlertLevelImportant
		title = "Mantenimiento próximo"
	case daysUntil >= 8 && daysUntil <= 30:
		level = models.AlertLevelRecommendation
		title = "Mantenimiento recomendado"
	default:
		return models.VehicleAlert{}, false
	}

	var message strings.Builder
	fmt.Fprintf(&message, "La tarea %q está prevista", task.Title)
	switch {
	case daysUntil < 0:
		message.WriteString(" muy pronto.")
	case daysUntil == 0:
		message.WriteString(" para hoy.")
	default:
		fmt.Fprintf(&message, " en aproximadamente %d días.", daysUntil)
	}
	if task.DueMileageKm != nil {
		fmt.Fprintf(&message, " Objetivo: %d km.", *task.DueMileageKm)
	}

	return models.VehicleAlert{
		ID:              "upcoming_" + task.ID,
		Level:           level,
		Title:           title,
		Message:         message.String(),
		RelatedTaskID:   task.ID,
		CreatedAtMillis: nowMillis,
	}, true
}

func allGoodAlert(nowMillis int64) models.VehicleAlert {
	return models.VehicleAlert{
		ID:              "info_all_good",
		Level:           models.AlertLevelInfo,
		Title:           "Todo en orden",
		Message:         "No tienes tareas vencidas y tus mantenimientos próximos están bajo control.",
		CreatedAtMillis: nowMillis,
	}
}
