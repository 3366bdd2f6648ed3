package guardrails

import "context"

// Validator 播报前文本的单项检查。实现不得修改入参，改写结果放在 Content 中。
type Validator interface {
	Validate(ctx context.Context, content string) (*ValidationResult, error)
	Name() string
}

// ValidationResult 单项检查结果。Valid 为 false 时由 SafetyFilter 换成安全话术，
// 为 true 时使用 Content（可能已截断）。
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Content  string            `json:"content"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

func NewValidationResult(content string) *ValidationResult {
	return &ValidationResult{Valid: true, Content: content}
}

// AddError 记录拦截原因，结果随之失效
func (r *ValidationResult) AddError(err ValidationError) {
	r.Errors = append(r.Errors, err)
	r.Valid = false
}

// AddWarning 记录非拦截性的改写说明
func (r *ValidationResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// ValidationError 拦截原因
type ValidationError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// SeverityCritical 命中即整段替换，不做局部修补
const SeverityCritical = "critical"

const ErrCodeBlockedKeyword = "BLOCKED_KEYWORD"
