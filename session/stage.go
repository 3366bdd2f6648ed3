package session

// Stage 流水线阶段
type Stage int

const (
	StageIdle Stage = iota
	StageRecording
	StageTranscribing
	StageVision
	StageRetrieving
	StageOCR
	StageDispatching
	StageSafetyFiltering
	StageSynthesizing
	StagePlaying
)

var stageNames = [...]string{
	StageIdle:            "idle",
	StageRecording:       "recording",
	StageTranscribing:    "transcribing",
	StageVision:          "vision",
	StageRetrieving:      "retrieving",
	StageOCR:             "ocr",
	StageDispatching:     "dispatching",
	StageSafetyFiltering: "safety_filtering",
	StageSynthesizing:    "synthesizing",
	StagePlaying:         "playing",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// MarshalText 以名称序列化
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
