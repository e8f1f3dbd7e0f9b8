package workday

import "time"

// PredictEndTime projects today's clock-out from the first segment's start, the
// daily target and the break: the actual break once it has ended, the configured
// one before that. It is nil unless a segment is running.
func PredictEndTime(today []Entry, settings Settings) *time.Time {
	status, _ := DeriveStatus(today)
	if !status.Working() || len(today) == 0 {
		return nil
	}

	brk := settings.ExpectedBreak()
	if status == StatusWorkingAfterBreak {
		brk = ActualBreak(today)
	}

	end := today[0].StartTime.Add(settings.DailyTarget() + brk)
	return &end
}

// ActualBreak is the gap between the first segment's end and the second's start.
func ActualBreak(today []Entry) time.Duration {
	if len(today) < 2 || today[0].EndTime == nil {
		return 0
	}
	gap := today[1].StartTime.Sub(*today[0].EndTime)
	if gap < 0 {
		return 0
	}
	return gap
}

// BreakEndTime is when the running break is expected to end, nil unless on break.
func BreakEndTime(today []Entry, settings Settings) *time.Time {
	status, _ := DeriveStatus(today)
	if status != StatusOnBreak || today[0].EndTime == nil {
		return nil
	}
	end := today[0].EndTime.Add(settings.ExpectedBreak())
	return &end
}
