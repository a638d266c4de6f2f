package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"focusflow/pkg/analytics"
)

// HandleStats prints the gamification state and today's goal progress
func HandleStats(ctx context.Context, env *Env, asJSON bool) error {
	progress := env.Session.Progress()
	daily, err := env.Analytics.DailyProgress(ctx, env.Session.Settings(), progress)
	if err != nil {
		return err
	}

	out := env.out()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Progress any `json:"progress"`
			Today    any `json:"today"`
		}{progress, daily})
	}

	fmt.Fprintf(out, "Level:        %d (%.0f%% to next)\n", daily.Level, daily.LevelProgress*100)
	fmt.Fprintf(out, "Total points: %d\n", progress.TotalPoints)
	fmt.Fprintf(out, "Today:        %d points, %d/%d tasks, %d pomodoros, %d focus min\n",
		progress.TodayPoints, daily.Completed, daily.Goal, progress.PomodorosToday, daily.FocusMinutesToday)
	fmt.Fprintf(out, "Streak:       %d (longest %d)\n", progress.Streak, progress.LongestStreak)
	if daily.GoalReached {
		fmt.Fprintln(out, "Daily goal reached!")
	}
	return nil
}

// AnalyticsReport is everything the analytics command prints
type AnalyticsReport struct {
	Overview  analytics.Overview       `json:"overview"`
	Daily     []analytics.DayStat      `json:"daily"`
	Priority  []analytics.PriorityStat `json:"priority"`
	Streaks   analytics.StreakHistory  `json:"streaks"`
	FocusHour [24]int                  `json:"focusByHour"`
}

// HandleAnalytics prints statistics for a range
func HandleAnalytics(ctx context.Context, env *Env, r analytics.Range, asJSON bool) (AnalyticsReport, error) {
	var report AnalyticsReport
	var err error
	if report.Overview, err = env.Analytics.Overview(ctx, r); err != nil {
		return report, err
	}
	if report.Daily, err = env.Analytics.DailyStats(ctx, r.Days()); err != nil {
		return report, err
	}
	if report.Priority, err = env.Analytics.PriorityBreakdown(ctx); err != nil {
		return report, err
	}
	if report.Streaks, err = env.Analytics.StreakHistory(ctx, r.Days()); err != nil {
		return report, err
	}
	if report.FocusHour, err = env.Analytics.FocusPatterns(ctx, r.Days()); err != nil {
		return report, err
	}

	out := env.out()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return report, enc.Encode(report)
	}

	o := report.Overview
	fmt.Fprintf(out, "Range %s since %s\n", o.Range, o.From.Format("2006-01-02"))
	fmt.Fprintf(out, "  tasks created %d, completed %d (%.0f%%)\n", o.TasksCreated, o.TasksCompleted, o.CompletionRate*100)
	fmt.Fprintf(out, "  pomodoros %d, focus %d min, points %d\n", o.Pomodoros, o.FocusMinutes, o.Points)

	fmt.Fprintln(out, "By priority:")
	for _, p := range report.Priority {
		fmt.Fprintf(out, "  %-7s %d/%d done, %d pts\n", p.Priority, p.Completed, p.Total, p.Points)
	}

	fmt.Fprintf(out, "Streak: current %d, longest %d\n", report.Streaks.Current, report.Streaks.Longest)
	var calendar strings.Builder
	for _, day := range report.Streaks.Days {
		if day.Active {
			calendar.WriteString("#")
		} else {
			calendar.WriteString(".")
		}
	}
	fmt.Fprintf(out, "  %s\n", calendar.String())

	peak, peakCount := 0, 0
	for hour, n := range report.FocusHour {
		if n > peakCount {
			peak, peakCount = hour, n
		}
	}
	if peakCount > 0 {
		fmt.Fprintf(out, "Peak focus hour: %02d:00 (%d sessions)\n", peak, peakCount)
	}
	return report, nil
}
