package styles

import "github.com/colonyops/taskboard/internal/core/task"

var (
	IconOpen            = "○"
	IconInProgress      = "◐"
	IconPendingApproval = "◔"
	IconClosed          = "●"
	IconReopened        = "↺"
	IconTimer           = "⏱"
)

// StatusIcon returns the icon shown next to a status.
func StatusIcon(s task.Status) string {
	switch s {
	case task.StatusOpen:
		return IconOpen
	case task.StatusInProgress:
		return IconInProgress
	case task.StatusPendingApproval:
		return IconPendingApproval
	case task.StatusClosed:
		return IconClosed
	case task.StatusReopened:
		return IconReopened
	default:
		return "?"
	}
}
