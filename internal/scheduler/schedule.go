// Package scheduler derives monitoring views from raw job-scheduler payloads:
// job status from lock snapshots, normalized execution history, and the
// filter/search/paginate query engine shared by every view.
package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"jobwatch/pkg/api"

	"github.com/robfig/cron/v3"
)

// Schedule kinds reported by the scheduler.
const (
	ScheduleCron     = "cron"
	ScheduleInterval = "interval"
)

// NoSchedule is rendered for absent or unrecognized schedules.
const NoSchedule = "N/A"

// ErrNotCron is returned by NextCronRun for schedules that are not cron.
var ErrNotCron = errors.New("schedule is not a cron schedule")

// Five-field expressions plus @hourly style descriptors, matching what the
// scheduler accepts.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// DescribeSchedule renders a schedule as a human string.
func DescribeSchedule(s *api.Schedule) string {
	if s == nil {
		return NoSchedule
	}
	switch s.Type {
	case ScheduleCron:
		return fmt.Sprintf("Cron: %s (%s)", s.Expression, s.Timezone)
	case ScheduleInterval:
		return fmt.Sprintf("Interval: %s %s", strconv.FormatFloat(s.Interval, 'f', -1, 64), s.Unit)
	default:
		return NoSchedule
	}
}

// NextCronRun computes the first activation of a cron schedule strictly
// after the given time, evaluated in the schedule's timezone (UTC if empty).
func NextCronRun(s *api.Schedule, after time.Time) (time.Time, error) {
	if s == nil || s.Type != ScheduleCron {
		return time.Time{}, ErrNotCron
	}

	loc := time.UTC
	if s.Timezone != "" {
		l, err := time.LoadLocation(s.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
		}
		loc = l
	}

	sched, err := cronParser.Parse(s.Expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", s.Expression, err)
	}

	next := sched.Next(after.In(loc))
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("cron expression %q never fires", s.Expression)
	}
	return next, nil
}
