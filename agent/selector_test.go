package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jjfwang/aceceed-edge/types"
)

type stubAgent struct{ id string }

func (s stubAgent) ID() string   { return s.id }
func (s stubAgent) Name() string { return s.id }
func (s stubAgent) Handle(context.Context, Input) (*Output, error) {
	return &Output{Text: s.id}, nil
}

func newRegistry(enabled ...string) *Registry {
	return NewRegistry([]Agent{stubAgent{IDTutor}, stubAgent{IDCoach}, stubAgent{"quiz"}}, enabled)
}

func TestRegistry(t *testing.T) {
	r := newRegistry("quiz", IDTutor, "ghost", "quiz")

	_, ok := r.Get(IDCoach)
	assert.False(t, ok, "registered but not enabled")
	_, ok = r.Get("ghost")
	assert.False(t, ok, "enabled but not registered")

	a, ok := r.Get(IDTutor)
	require.True(t, ok)
	assert.Equal(t, IDTutor, a.ID())

	assert.Len(t, r.List(), 3)
	enabled := r.ListEnabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, "quiz", enabled[0].ID())

	first, ok := r.FirstEnabled()
	require.True(t, ok)
	assert.Equal(t, "quiz", first.ID())

	_, ok = NewRegistry(nil, nil).FirstEnabled()
	assert.False(t, ok)
}

func TestRegistry_DuplicateKeepsPosition(t *testing.T) {
	replacement := &Coach{}
	r := NewRegistry([]Agent{stubAgent{IDCoach}, stubAgent{IDTutor}, replacement}, []string{IDCoach})
	list := r.List()
	require.Len(t, list, 2)
	assert.Same(t, replacement, list[0])
}

func TestSelector_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		enabled    []string
		defaultID  string
		transcript string
		requested  string
		want       string
	}{
		{"coach keyword", []string{IDTutor, IDCoach}, "", "I need a study plan", "", IDCoach},
		{"explicit beats keyword", []string{IDTutor, IDCoach}, "", "I need a study plan", IDTutor, IDTutor},
		{"default beats keyword", []string{IDTutor, IDCoach}, IDTutor, "help me procrastinate less", "", IDTutor},
		{"explicit beats default", []string{IDTutor, IDCoach}, IDTutor, "hi", IDCoach, IDCoach},
		{"case insensitive keyword", []string{IDTutor, IDCoach}, "", "MOTIVATE me", "", IDCoach},
		{"tutor fallback", []string{IDCoach, IDTutor}, "", "what is photosynthesis", "", IDTutor},
		{"disabled request falls through", []string{IDTutor, IDCoach}, "", "what is 2+2", "quiz", IDTutor},
		{"coach disabled", []string{IDTutor}, "", "study plan", "", IDTutor},
		{"first enabled", []string{"quiz"}, "", "study plan", "", "quiz"},
		{"disabled default falls through", []string{"quiz", IDCoach}, IDTutor, "hello", "", "quiz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector(newRegistry(tt.enabled...), tt.defaultID, nil, nil)
			a, err := s.Select(tt.transcript, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.ID())
		})
	}
}

func TestSelector_NoEnabledAgent(t *testing.T) {
	_, err := NewSelector(newRegistry(), "", nil, nil).Select("hi", "")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrNoEnabledAgent))
}

func TestSelector_LogsDisabledOverrides(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewSelector(newRegistry(IDTutor), IDCoach, nil, zap.New(core))
	_, err := s.Select("hi", "quiz")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("requested agent not enabled").Len())
	assert.Equal(t, 1, logs.FilterMessage("default agent not enabled").Len())
}

func TestSelector_CustomKeywords(t *testing.T) {
	s := NewSelector(newRegistry(IDTutor, IDCoach), "", []string{" Exam Stress "}, nil)
	assert.True(t, s.WantsCoach("my exam stress is bad"))
	assert.False(t, s.WantsCoach("study plan"))
}
