package dialog

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep(t *testing.T) {
	tests := []struct {
		name      string
		state     State
		utterance string
		wantText  string
		wantState State
		wantDone  bool
	}{
		{"collapsed asks about consciousness", StateIdle, "쓰러졌어요", askConsciousness, StateAwaitingConsciousness, false},
		{"keyword inside sentence", StateIdle, " 친구가 쓰러졌어요 ", askConsciousness, StateAwaitingConsciousness, false},
		{"unconscious", StateAwaitingConsciousness, "없어요", callAndStartCPR, StateIdle, false},
		{"conscious", StateAwaitingConsciousness, "있어요", keepMonitoring, StateIdle, false},
		{"seizure", StateIdle, "발작", recoveryPosition, StateIdle, false},
		{"choking", StateIdle, "하임리히법", abdominalThrusts, StateIdle, false},
		{"thanks ends", StateIdle, "고마워", farewell, StateIdle, true},
		{"unknown", StateIdle, "배가 아파요", unrecognized, StateIdle, false},
		{"empty", StateIdle, "", unrecognized, StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Step(tt.state, tt.utterance)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantDone, got.Done)
		})
	}
}

func TestStep_HintOnlyWhenAwaiting(t *testing.T) {
	assert.NotEmpty(t, Step(StateIdle, KeywordCollapsed).Hint)
	assert.Empty(t, Step(StateIdle, KeywordSeizure).Hint)
}

func TestParseState(t *testing.T) {
	s, ok := ParseState("awaiting_consciousness")
	assert.True(t, ok)
	assert.Equal(t, StateAwaitingConsciousness, s)

	s, ok = ParseState("")
	assert.True(t, ok)
	assert.Equal(t, StateIdle, s)

	_, ok = ParseState("bogus")
	assert.False(t, ok)
}

func TestConsole_Run(t *testing.T) {
	in := strings.NewReader("쓰러졌어요\n없어요\n고마워\n이 줄은 읽지 않아요\n")
	var out bytes.Buffer
	var spoken []string

	c := NewConsole(in, &out, func(_ context.Context, text string) error {
		spoken = append(spoken, text)
		return nil
	})
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{askConsciousness, callAndStartCPR, farewell}, spoken)
	assert.Contains(t, out.String(), Greeting)
	assert.Contains(t, out.String(), consciousnessHint)
}

func TestConsole_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("발작\n"), &out, nil)
	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), recoveryPosition)
}

func TestConsole_SpeakerFailure(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("고마워\n"), &out, func(context.Context, string) error {
		return errors.New("no audio device")
	})
	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "no audio device")
}

func TestConsole_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := NewConsole(strings.NewReader("발작\n"), &out, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
