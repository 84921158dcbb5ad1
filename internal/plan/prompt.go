package plan

import (
	"fmt"
	"strings"

	"github.com/pty0735/routinely/internal"
)

// PlanRequest is everything the prompt needs about the goal and its owner.
type PlanRequest struct {
	Description string
	Category    string
	TargetDate  internal.Date
	Age         int
	TotalDays   int
}

// BuildPrompt renders the instruction sent to the text-generation service.
// It asks for exactly TotalDays numbered day entries in the one line shape
// the parser recognizes, forbids the markdown tokens that would break it,
// and requests a fixed title / daily plan / advice layout.
func BuildPrompt(req PlanRequest) string {
	var b strings.Builder
	b.WriteString("사용자 정보:\n")
	fmt.Fprintf(&b, "- 목표: %s\n", req.Description)
	fmt.Fprintf(&b, "- 카테고리: %s\n", req.Category)
	fmt.Fprintf(&b, "- 목표 달성 날짜: %s\n", req.TargetDate)
	fmt.Fprintf(&b, "- 사용자 나이: %d세\n", req.Age)
	fmt.Fprintf(&b, "- 총 계획 기간: %d일\n", req.TotalDays)
	b.WriteString("\n")
	fmt.Fprintf(&b, "위 정보를 바탕으로 %d일간의 실용적이고 달성 가능한 일일 루틴을 자세하게 생성해주세요.\n", req.TotalDays)
	b.WriteString("그리고 **과 ##을 사용하지 마세요.\n")
	b.WriteString("다음 형식으로 응답해주세요:\n\n")
	b.WriteString("제목: [목표에 맞는 루틴 제목]\n\n")
	b.WriteString("일일 계획:\n")
	b.WriteString("1. 1일차: [구체적인 활동] (예상 소요시간: X분)\n")
	b.WriteString("...\n")
	fmt.Fprintf(&b, "%d. %d일차: [구체적인 활동] (예상 소요시간: X분)\n\n", req.TotalDays, req.TotalDays)
	b.WriteString("추가 조언:\n")
	b.WriteString("[목표 달성을 위한 실용적인 조언]\n")
	return b.String()
}
