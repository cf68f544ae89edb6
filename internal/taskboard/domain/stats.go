package domain

// TaskStats is the dashboard summary, scoped by the caller's task
// visibility. Status and priority maps carry every enum key, zero
// filled, so clients never have to guard against missing keys.
type TaskStats struct {
	TotalTasks        int              `json:"totalTasks"`
	TasksByStatus     map[Status]int   `json:"tasksByStatus"`
	TasksByPriority   map[Priority]int `json:"tasksByPriority"`
	OverdueTasks      int              `json:"overdueTasks"`
	CompletedThisWeek int              `json:"completedThisWeek"`
}

// NewTaskStats returns stats with zero-filled enum maps.
func NewTaskStats() TaskStats {
	byStatus := make(map[Status]int, len(Statuses()))
	for _, s := range Statuses() {
		byStatus[s] = 0
	}
	byPriority := make(map[Priority]int, len(Priorities()))
	for _, p := range Priorities() {
		byPriority[p] = 0
	}
	return TaskStats{TasksByStatus: byStatus, TasksByPriority: byPriority}
}

// UserTaskCounts accompanies a user profile: how many tasks the user
// created and how many are assigned to them.
type UserTaskCounts struct {
	CreatedTasks  int `json:"createdTasks"`
	AssignedTasks int `json:"assignedTasks"`
}
