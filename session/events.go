package session

import (
	"time"

	"github.com/jjfwang/aceceed-edge/vision"
)

// EventType 生命周期事件类型
type EventType string

const (
	// EventSessionStarted 也是按键/屏幕驱动发出的开始请求
	EventSessionStarted   EventType = "session-started"
	EventSessionStopped   EventType = "session-stopped"
	EventTranscriptReady  EventType = "transcript-ready"
	EventAgentResponded   EventType = "agent-responded"
	EventSpeechPlayed     EventType = "speech-played"
	EventCaptureCompleted EventType = "capture-completed"
	EventError            EventType = "error"
)

// Source 会话触发源
type Source string

const (
	SourceAPI        Source = "api"
	SourceKeyboard   Source = "keyboard"
	SourceMHSDisplay Source = "mhs-display"
	SourceWhisplay   Source = "whisplay"
	SourceSystem     Source = "system"
)

// Event 广播给观察者的生命周期事件，按 Type 决定哪些字段有值
type Event struct {
	Type      EventType       `json:"type"`
	Source    Source          `json:"source,omitempty"`
	Text      string          `json:"text,omitempty"`
	Detectors []vision.Result `json:"detectors,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func newEvent(t EventType) Event {
	return Event{Type: t, Timestamp: time.Now()}
}

// StartedEvent 开始请求
func StartedEvent(source Source) Event {
	e := newEvent(EventSessionStarted)
	e.Source = source
	return e
}

// StoppedEvent 停止请求
func StoppedEvent(source Source) Event {
	e := newEvent(EventSessionStopped)
	e.Source = source
	return e
}

func textEvent(t EventType, text string) Event {
	e := newEvent(t)
	e.Text = text
	return e
}

func captureEvent(source Source, detectors []vision.Result) Event {
	e := newEvent(EventCaptureCompleted)
	e.Source = source
	e.Detectors = detectors
	return e
}

func errorEvent(message string) Event {
	e := newEvent(EventError)
	e.Message = message
	return e
}
