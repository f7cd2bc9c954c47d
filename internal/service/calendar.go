package service

import (
	"fmt"
	"math"
	"time"

	ics "github.com/arran4/golang-ical"

	"gardops/backend/internal/model"
)

// Shift 一次具体上班时段
type Shift struct {
	Start time.Time
	End   time.Time
}

// RoleShifts 计算 [from, from+days) 内轮班的上班时段。
// 周期以 anchor 所在日期为第 0 天：前 WorkDays 天上班，随后 RestDays 天休息；
// 结束时间不晚于开始时间时视为跨夜，结束于次日。
func RoleShifts(role *model.ServiceRole, anchor, from time.Time, days int, loc *time.Location) []Shift {
	if role == nil || role.WorkDays < 1 || days <= 0 {
		return nil
	}
	cycle := role.WorkDays + role.RestDays
	startH, startM := clockOf(role.StartTime)
	endH, endM := clockOf(role.EndTime)

	anchorDay := dateOf(anchor.In(loc), loc)
	fromDay := dateOf(from.In(loc), loc)

	var shifts []Shift
	for d := 0; d < days; d++ {
		day := fromDay.AddDate(0, 0, d)
		pos := daysBetween(anchorDay, day) % cycle
		if pos < 0 {
			pos += cycle
		}
		if pos >= role.WorkDays {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), startH, startM, 0, 0, loc)
		end := time.Date(day.Year(), day.Month(), day.Day(), endH, endM, 0, 0, loc)
		if !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}
		shifts = append(shifts, Shift{Start: start, End: end})
	}
	return shifts
}

// BuildGuardCalendar 渲染保安所有生效岗位的上班时段
func BuildGuardCalendar(guard *model.Guard, posts []model.ShiftPost, from time.Time, days int, loc *time.Location) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//GardOps//Turnos//ES")
	cal.SetXWRCalName("Turnos " + guard.FullName())

	stamp := timeNow()
	for _, post := range posts {
		anchor := post.UpdatedAt
		if post.AssignedAt != nil {
			anchor = *post.AssignedAt
		}
		place := installationName(post.Installation)

		for _, sh := range RoleShifts(post.Role, anchor, from, days, loc) {
			uid := fmt.Sprintf("%s-%s@gardops", post.ShiftPostID, sh.Start.Format("20060102"))
			event := cal.AddEvent(uid)
			event.SetDtStampTime(stamp)
			event.SetStartAt(sh.Start)
			event.SetEndAt(sh.End)
			event.SetSummary(fmt.Sprintf("%s · %s", post.Name, roleName(post.Role)))
			event.SetLocation(place)
			event.SetDescription(fmt.Sprintf("Guardia: %s (%s)", guard.FullName(), guard.RUT))
		}
	}
	return cal.Serialize()
}

func clockOf(hhmm string) (int, int) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween 按日历日计算，夏令时切换日不会产生偏差
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 12, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 12, 0, 0, 0, time.UTC)
	return int(math.Round(ub.Sub(ua).Hours() / 24))
}
