package utils

import "github.com/geocoder89/taskify/internal/domain/task"

// TasksListCachePrefix keys every cached list variant for one owner, so a
// single prefix delete invalidates them all after a mutation.
func TasksListCachePrefix(ownerID string) string {
	return "tasks:list:v1:owner=" + ownerID
}

func BuildTasksListCacheKey(ownerID string, filter task.ListFilter) string {
	status := ""

	if filter.Status != nil {
		status = string(*filter.Status)
	}

	return TasksListCachePrefix(ownerID) + ":status=" + status
}
