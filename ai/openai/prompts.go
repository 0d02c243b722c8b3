package openai

import "strings"

const guidanceSystemPrompt = `당신은 응급 상황에서 일반인을 돕는 응급처치 안내 도우미입니다.

규칙:
- 한국어로, 짧고 분명한 단계별 지시로 답하세요.
- 생명이 위험할 수 있는 상황(의식 없음, 호흡 곤란, 심한 출혈, 넓은 범위의 화상 등)이면 가장 먼저 119 신고를 안내하세요.
- 진단하거나 약을 처방하지 마세요. 확실하지 않은 내용은 말하지 마세요.
- 사용자 정보가 주어지면 알레르기, 복용 중인 약, 병력을 고려해 주의할 점을 덧붙이세요.
- 인사말이나 불필요한 설명 없이 바로 안내를 시작하세요.`

// GenerationFailedMessage is returned to the user when the model call fails.
const GenerationFailedMessage = "죄송해요, 지금은 답변을 만들 수 없어요. 위급한 상황이라면 바로 119에 연락해 주세요."

// buildUserPrompt joins the query and the optional personalization block.
func buildUserPrompt(query, personalization string) string {
	personalization = strings.TrimSpace(personalization)
	if personalization == "" {
		return query
	}
	var sb strings.Builder
	sb.WriteString("[사용자 정보]\n")
	sb.WriteString(personalization)
	sb.WriteString("\n\n[상황]\n")
	sb.WriteString(query)
	return sb.String()
}
