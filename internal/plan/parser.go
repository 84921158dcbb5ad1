package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pty0735/routinely/internal"
)

// FallbackDuration is the estimate assigned when a day's entry cannot be
// extracted from the generated text.
const FallbackDuration = 30

// dayPatterns is the ordered extraction table, strictest shape first. Each
// entry is a regexp template; %d slots take the day number. The activity
// capture accepts anything but a newline or an opening parenthesis, so the
// strategies stay total over arbitrary generated text. The last shape drops
// the duration label and matches a bare "(X분)". The bare "N일차:" shape can
// also match inside a longer day label that ends with the same digits (day
// 1 vs 11); that quirk is kept as the source behaves.
var dayPatterns = []struct {
	template string
	daySlots int
}{
	{`%d\. %d일차:\s*([^(\n]+)\(예상 소요시간:\s*(\d+)분\)`, 2},
	{`%d일차:\s*([^(\n]+)\(예상 소요시간:\s*(\d+)분\)`, 1},
	{`%d\. \s*([^(\n]+)\(예상 소요시간:\s*(\d+)분\)`, 1},
	{`%d\. %d일차:\s*([^(\n]+)\((\d+)분\)`, 2},
}

func compileDayPattern(template string, daySlots, day int) *regexp.Regexp {
	args := make([]interface{}, daySlots)
	for i := range args {
		args[i] = day
	}
	return regexp.MustCompile(`(?i)` + fmt.Sprintf(template, args...))
}

// TotalDays is the inclusive day span from today through target, never
// less than 1.
func TotalDays(today, target internal.Date) int {
	n := today.DaysUntil(target) + 1
	if n < 1 {
		n = 1
	}
	return n
}

// ParseDailyRoutines converts the free-text plan into exactly one routine
// per day of the span, day d dated today+(d-1). Extraction tries each
// pattern in order and takes the first match; a day with no match gets a
// placeholder record instead of failing, so a formatting mismatch in one
// day never discards the rest of the plan. Deterministic for identical
// input.
func ParseDailyRoutines(text, goalID string, today, target internal.Date, logger internal.Logger) []internal.Routine {
	if logger == nil {
		logger = internal.NopLogger{}
	}

	totalDays := TotalDays(today, target)
	routines := make([]internal.Routine, 0, totalDays)

	for day := 1; day <= totalDays; day++ {
		date := today.AddDays(day - 1)
		activity, duration, matched := extractDay(text, day)
		if !matched {
			logger.Warnf("plan: goal %s day %d: no pattern matched, using placeholder", goalID, day)
			activity = fmt.Sprintf("%d일차 활동 (상세 계획 필요)", day)
			duration = FallbackDuration
		}
		routines = append(routines, internal.Routine{
			GoalID:            goalID,
			Date:              date,
			Activity:          activity,
			EstimatedDuration: duration,
		})
	}

	return routines
}

// extractDay runs the pattern table for one day index; first match wins.
func extractDay(text string, day int) (activity string, duration int, ok bool) {
	for _, p := range dayPatterns {
		re := compileDayPattern(p.template, p.daySlots, day)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		minutes, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return strings.TrimSpace(m[1]), minutes, true
	}
	return "", 0, false
}
