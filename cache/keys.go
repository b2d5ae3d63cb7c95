package cache

import "fmt"

// Key naming for derived, non-authoritative views of the task domain.
// Every cached read and every mutation's invalidation set goes through these
// helpers; a cache key assembled anywhere else is a bug, because invalidation
// is by naming convention, not by dependency tracking.

// TaskKey names the cached detail view of one task as seen by one principal.
func TaskKey(taskID, principal string) string {
	return fmt.Sprintf("task:%s:user:%s", taskID, principal)
}

// TaskListKey names one page of a principal's task list.
func TaskListKey(principal string, page, size int) string {
	return fmt.Sprintf("tasks:user:%s:page:%d:size:%d", principal, page, size)
}

// TaskListPattern matches every cached page of a principal's task list.
func TaskListPattern(principal string) string {
	return fmt.Sprintf("tasks:user:%s:page:*", principal)
}

// AllTasksKey names one page of the admin-wide task list.
func AllTasksKey(page, size int) string {
	return fmt.Sprintf("tasks:all:page:%d:size:%d", page, size)
}

// AllTasksPattern matches every cached page of the admin-wide task list.
func AllTasksPattern() string {
	return "tasks:all:page:*"
}

// TaskCountKey names a principal's cached task count.
func TaskCountKey(principal string) string {
	return fmt.Sprintf("tasks:count:user:%s", principal)
}

// UserProfileKey names a cached user profile view.
func UserProfileKey(principal string) string {
	return fmt.Sprintf("user:%s", principal)
}

// InvalidationSet is the explicit list of derived keys a mutation must
// remove: exact keys plus scan patterns for paged views.
type InvalidationSet struct {
	Keys     []string
	Patterns []string
}

// TaskMutation is the invalidation set for creating, updating or deleting a
// task. owner is the task's owner; actor is the principal performing the
// mutation (an admin may mutate someone else's task, in which case both
// principals' views are stale).
func TaskMutation(taskID, owner, actor string) InvalidationSet {
	set := InvalidationSet{
		Keys: []string{
			TaskKey(taskID, owner),
			TaskCountKey(owner),
		},
		Patterns: []string{
			TaskListPattern(owner),
			AllTasksPattern(),
		},
	}

	if actor != "" && actor != owner {
		set.Keys = append(set.Keys,
			TaskKey(taskID, actor),
			TaskCountKey(actor),
		)
		set.Patterns = append(set.Patterns, TaskListPattern(actor))
	}

	return set
}

// UserMutation is the invalidation set for a change to a user record.
func UserMutation(principal string) InvalidationSet {
	return InvalidationSet{
		Keys: []string{UserProfileKey(principal)},
	}
}
