package plan

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pty0735/routinely/internal"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) internal.Date {
	return internal.NewDate(y, m, d)
}

func TestTotalDays(t *testing.T) {
	today := date(2024, time.January, 1)

	assert.Equal(t, 1, TotalDays(today, today))
	assert.Equal(t, 3, TotalDays(today, date(2024, time.January, 3)))
	assert.Equal(t, 31, TotalDays(today, date(2024, time.January, 31)))
	// A target in the past still yields a one-day span.
	assert.Equal(t, 1, TotalDays(today, date(2023, time.December, 25)))
}

func TestParseFullPlan(t *testing.T) {
	text := `제목: 3일 스트레칭 루틴

일일 계획:
1. 1일차: 전신 스트레칭 기초 동작 익히기 (예상 소요시간: 20분)
2. 2일차: 하체 중심 스트레칭 (예상 소요시간: 25분)
3. 3일차: 전체 복습과 마무리 스트레칭 (예상 소요시간: 30분)

추가 조언:
매일 같은 시간에 진행하세요.`

	routines := ParseDailyRoutines(text, "goal-1", date(2024, time.January, 1), date(2024, time.January, 3), nil)

	assert.Len(t, routines, 3)
	assert.Equal(t, "2024-01-01", routines[0].Date.String())
	assert.Equal(t, "2024-01-02", routines[1].Date.String())
	assert.Equal(t, "2024-01-03", routines[2].Date.String())
	assert.Equal(t, "전신 스트레칭 기초 동작 익히기", routines[0].Activity)
	assert.Equal(t, 20, routines[0].EstimatedDuration)
	assert.Equal(t, 25, routines[1].EstimatedDuration)
	assert.Equal(t, 30, routines[2].EstimatedDuration)
	for _, r := range routines {
		assert.Equal(t, "goal-1", r.GoalID)
	}
}

func TestParseSingleDaySpan(t *testing.T) {
	today := date(2024, time.May, 5)
	text := "1. 1일차: 책 한 챕터 읽기 (예상 소요시간: 40분)"

	routines := ParseDailyRoutines(text, "g", today, today, nil)

	assert.Len(t, routines, 1)
	assert.Equal(t, today.String(), routines[0].Date.String())
	assert.Equal(t, "책 한 챕터 읽기", routines[0].Activity)
	assert.Equal(t, 40, routines[0].EstimatedDuration)
}

func TestParseRelaxedShapes(t *testing.T) {
	today := date(2024, time.January, 1)
	target := date(2024, time.January, 1)

	tests := []struct {
		name     string
		text     string
		activity string
		minutes  int
	}{
		{
			name:     "no leading index",
			text:     "1일차: 가볍게 조깅하기 (예상 소요시간: 15분)",
			activity: "가볍게 조깅하기",
			minutes:  15,
		},
		{
			name:     "no day label",
			text:     "1. 단어 50개 암기 (예상 소요시간: 45분)",
			activity: "단어 50개 암기",
			minutes:  45,
		},
		{
			name:     "bare minutes qualifier",
			text:     "1. 1일차: 플랭크와 스쿼트(60분)",
			activity: "플랭크와 스쿼트",
			minutes:  60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routines := ParseDailyRoutines(tt.text, "g", today, target, nil)
			assert.Len(t, routines, 1)
			assert.Equal(t, tt.activity, routines[0].Activity)
			assert.Equal(t, tt.minutes, routines[0].EstimatedDuration)
		})
	}
}

func TestParseFallbackFillsMissingDay(t *testing.T) {
	// Day 2 is present but in a shape no strategy recognizes.
	text := `1. 1일차: 러닝 30분 (예상 소요시간: 30분)
둘째 날 - 휴식하면서 산책 [20분]
3. 3일차: 인터벌 러닝 (예상 소요시간: 35분)`

	routines := ParseDailyRoutines(text, "g", date(2024, time.January, 1), date(2024, time.January, 3), nil)

	assert.Len(t, routines, 3)
	assert.Equal(t, "러닝 30분", routines[0].Activity)
	assert.Equal(t, "2일차 활동 (상세 계획 필요)", routines[1].Activity)
	assert.Equal(t, FallbackDuration, routines[1].EstimatedDuration)
	assert.Equal(t, "2024-01-02", routines[1].Date.String())
	assert.Equal(t, "인터벌 러닝", routines[2].Activity)
}

func TestParseGarbageNeverFailsOrOmitsDays(t *testing.T) {
	texts := []string{
		"",
		"완전히 형식이 깨진 응답입니다.",
		"**1일차** 굵은 글씨 제목\n## 머리말",
	}

	for _, text := range texts {
		routines := ParseDailyRoutines(text, "g", date(2024, time.March, 1), date(2024, time.March, 5), nil)
		assert.Len(t, routines, 5)
		for i, r := range routines {
			assert.Equal(t, fmt.Sprintf("%d일차 활동 (상세 계획 필요)", i+1), r.Activity)
			assert.Equal(t, FallbackDuration, r.EstimatedDuration)
			assert.Equal(t, date(2024, time.March, 1+i).String(), r.Date.String())
		}
	}
}

func TestParseTrimsActivityWhitespace(t *testing.T) {
	text := "1. 1일차:    아침 명상   (예상 소요시간: 10분)"

	routines := ParseDailyRoutines(text, "g", date(2024, time.January, 1), date(2024, time.January, 1), nil)

	assert.Equal(t, "아침 명상", routines[0].Activity)
}

func TestParseActivityStopsAtParenthesis(t *testing.T) {
	text := "1. 1일차: 요가 (예상 소요시간: 25분) 그리고 기타 메모"

	routines := ParseDailyRoutines(text, "g", date(2024, time.January, 1), date(2024, time.January, 1), nil)

	assert.Equal(t, "요가", routines[0].Activity)
	assert.Equal(t, 25, routines[0].EstimatedDuration)
}

func TestParseIsDeterministic(t *testing.T) {
	text := `1. 1일차: 수영 (예상 소요시간: 50분)
2일차: 자전거 (예상 소요시간: 40분)`
	today := date(2024, time.January, 1)
	target := date(2024, time.January, 2)

	first := ParseDailyRoutines(text, "g", today, target, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ParseDailyRoutines(text, "g", today, target, nil))
	}
}

func TestParseLongSpanMixedMatches(t *testing.T) {
	// Ten-day span where only odd days are present.
	var b strings.Builder
	for day := 1; day <= 10; day += 2 {
		fmt.Fprintf(&b, "%d. %d일차: %d일차 훈련 (예상 소요시간: %d분)\n", day, day, day, day*10)
	}

	routines := ParseDailyRoutines(b.String(), "g", date(2024, time.June, 1), date(2024, time.June, 10), nil)

	assert.Len(t, routines, 10)
	for i, r := range routines {
		day := i + 1
		if day%2 == 1 {
			assert.Equal(t, day*10, r.EstimatedDuration, "day %d", day)
		} else {
			assert.Equal(t, FallbackDuration, r.EstimatedDuration, "day %d", day)
			assert.Equal(t, fmt.Sprintf("%d일차 활동 (상세 계획 필요)", day), r.Activity)
		}
	}
}
