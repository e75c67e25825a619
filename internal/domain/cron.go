package domain

import "time"

// SchedulePreset names a supported recurrence.
type SchedulePreset string

const (
	ScheduleHourly  SchedulePreset = "hourly"
	ScheduleDaily   SchedulePreset = "daily"
	ScheduleWeekly  SchedulePreset = "weekly"
	ScheduleMonthly SchedulePreset = "monthly"
)

// CronSchedule represents a recurring schedule.
type CronSchedule struct {
	Preset SchedulePreset
}

// CronEntry represents a registered cron job.
type CronEntry struct {
	ID       string
	Name     string
	Schedule CronSchedule
	LastRun  time.Time
	NextRun  time.Time
	Running  bool
}

// SyncReport summarizes one catalogue synchronization run.
type SyncReport struct {
	Registry           string
	Repositories       int
	Skipped            int
	TagsCreated        int
	TagsDeleted        int
	RepositoriesPruned int
}

// TagChanges lists the tag names a reconciliation created and deleted.
type TagChanges struct {
	Created []string
	Deleted []string
}

// Empty reports whether the reconciliation changed nothing.
func (c TagChanges) Empty() bool {
	return len(c.Created) == 0 && len(c.Deleted) == 0
}
