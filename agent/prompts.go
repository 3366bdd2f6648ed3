package agent

import (
	_ "embed"
)

// TutorPrompt 内置辅导提示
//
//go:embed prompts/tutor.txt
var TutorPrompt string

// CoachPrompt 内置教练提示
//
//go:embed prompts/coach.txt
var CoachPrompt string
