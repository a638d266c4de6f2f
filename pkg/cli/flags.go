package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"focusflow/pkg/analytics"
	"focusflow/pkg/database"
	"focusflow/pkg/timer"
)

// priorityValue is a pflag.Value accepting low|medium|high and their initials
type priorityValue struct {
	priority database.Priority
}

var _ pflag.Value = (*priorityValue)(nil)

func (v *priorityValue) String() string { return string(v.priority) }

func (v *priorityValue) Set(s string) error {
	p, err := database.ParsePriority(s)
	if err != nil {
		return err
	}
	v.priority = p
	return nil
}

func (v *priorityValue) Type() string { return "priority" }

// modeValue is a pflag.Value for timer modes
type modeValue struct {
	mode timer.Mode
}

var _ pflag.Value = (*modeValue)(nil)

func (v *modeValue) String() string { return string(v.mode) }

func (v *modeValue) Set(s string) error {
	m, err := timer.ParseMode(s)
	if err != nil {
		return err
	}
	v.mode = m
	return nil
}

func (v *modeValue) Type() string { return "mode" }

// rangeValue is a pflag.Value for analytics ranges
type rangeValue struct {
	r analytics.Range
}

var _ pflag.Value = (*rangeValue)(nil)

func (v *rangeValue) String() string { return string(v.r) }

func (v *rangeValue) Set(s string) error {
	r, err := analytics.ParseRange(s)
	if err != nil {
		return err
	}
	v.r = r
	return nil
}

func (v *rangeValue) Type() string { return "range" }

// statusFlags turns --done/--undone into a task filter
type statusFlags struct {
	done   bool
	undone bool
}

func (f *statusFlags) register(flags *pflag.FlagSet) {
	flags.BoolVar(&f.done, "done", false, "Only completed tasks")
	flags.BoolVar(&f.undone, "undone", false, "Only open tasks")
}

func (f *statusFlags) filter() database.TaskFilter {
	switch {
	case f.done:
		return database.DoneTasksFilter
	case f.undone:
		return database.PendingTasksFilter
	}
	return database.AllTasksFilter
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
		if err != nil || id <= 0 {
			return nil, usageErrorf("invalid task id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
