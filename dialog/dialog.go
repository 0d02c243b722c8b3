// Package dialog implements the keyword-driven emergency conversation.
//
// The conversation is a small state machine. Step is pure: callers carry
// the State between turns, so the HTTP endpoint stays stateless.
package dialog

import "strings"

type State string

const (
	StateIdle                  State = ""
	StateAwaitingConsciousness State = "awaiting_consciousness"
)

const (
	KeywordCollapsed = "쓰러졌어요"
	KeywordSeizure   = "발작"
	KeywordChoking   = "하임리히법"
	KeywordThanks    = "고마워"
	AnswerNo         = "없어요"
)

const (
	Greeting = "응급상황이 있으시면 키워드를 말씀해 주세요. (종료하려면 '고마워'라고 입력)"

	askConsciousness  = "지금 환자분이 의식이 있으신가요?"
	consciousnessHint = "답변해 주세요 (예: 있어요 / 없어요)"
	callAndStartCPR   = "지금 바로 119에 신고해 주세요. 그리고 심폐소생술을 시작해 주시겠어요?"
	keepMonitoring    = "네, 알겠습니다. 환자분의 호흡과 상태를 계속 지켜봐 주세요. 필요하다면 언제든 다시 말씀해 주세요."
	recoveryPosition  = "환자분을 조심스럽게 옆으로 눕혀 주시고, 주변에 위험한 물건이 있다면 치워 주세요."
	abdominalThrusts  = "환자분 뒤에 서서, 두 팔로 환자분의 배를 감싸 잡고 명치 아래를 위쪽으로 힘껏 밀어 올려 주세요."
	farewell          = "도움이 될 수 있어서 정말 다행이에요. 언제든 필요하실 때 불러 주세요! 항상 안전하시길 바랍니다."
	unrecognized      = "죄송해요, 아직 그 상황은 인식하지 못했어요. 조금 더 구체적으로 말씀해 주실 수 있나요?"
)

// Reply is the assistant's turn.
type Reply struct {
	Text string

	// Hint describes the expected answer when State awaits one.
	Hint string

	// State is passed back on the next call to Step.
	State State

	// Done ends the conversation.
	Done bool
}

// Step answers utterance given the conversation state. Keywords match
// anywhere in the utterance, so "친구가 쓰러졌어요" is recognized.
func Step(state State, utterance string) Reply {
	utterance = strings.TrimSpace(utterance)

	if state == StateAwaitingConsciousness {
		if strings.Contains(utterance, AnswerNo) {
			return Reply{Text: callAndStartCPR}
		}
		return Reply{Text: keepMonitoring}
	}

	switch {
	case strings.Contains(utterance, KeywordCollapsed):
		return Reply{Text: askConsciousness, Hint: consciousnessHint, State: StateAwaitingConsciousness}
	case strings.Contains(utterance, KeywordSeizure):
		return Reply{Text: recoveryPosition}
	case strings.Contains(utterance, KeywordChoking):
		return Reply{Text: abdominalThrusts}
	case strings.Contains(utterance, KeywordThanks):
		return Reply{Text: farewell, Done: true}
	default:
		return Reply{Text: unrecognized}
	}
}

// ParseState converts a client supplied state, rejecting unknown values.
func ParseState(s string) (State, bool) {
	switch State(s) {
	case StateIdle, StateAwaitingConsciousness:
		return State(s), true
	default:
		return StateIdle, false
	}
}
