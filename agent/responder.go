package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/llm"
)

// languageResponder Tutor 与 Coach 共用的生成流程：
// 识别 → 指令 → 生成 → 校验 → 至多一次翻译 → 去前缀
type languageResponder struct {
	client       llm.Client
	systemPrompt string
	logger       *zap.Logger
}

func newLanguageResponder(client llm.Client, systemPrompt string, logger *zap.Logger) languageResponder {
	return languageResponder{client: client, systemPrompt: strings.TrimSpace(systemPrompt), logger: logger}
}

// respond extra 为追加的系统消息，可为空
func (r languageResponder) respond(ctx context.Context, turn, extra string) (string, error) {
	lang := DetectLanguage(turn)

	messages := []llm.Message{llm.System(WithLanguageDirective(r.systemPrompt, lang))}
	if extra != "" {
		messages = append(messages, llm.System(extra))
	}
	messages = append(messages, llm.User(turn))

	r.logger.Debug("llm request", zap.Int("messages", len(messages)), zap.String("language", string(lang)))
	response, err := r.client.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	r.logger.Debug("llm response", zap.Int("chars", len(response)))

	if lang != LanguageNone && !MatchesLanguage(response, lang) {
		r.logger.Info("llm response language mismatch, retrying with translation", zap.String("target", string(lang)))
		translated, err := r.client.Generate(ctx, TranslationMessages(response, lang))
		switch {
		case err != nil:
			r.logger.Warn("translation request failed, keeping original response", zap.Error(err))
		case MatchesLanguage(translated, lang):
			response = translated
		}
	}

	return StripPrefix(response), nil
}

// userTurn 问题为空但有 OCR 文本时，以 OCR 文本作为用户发言
func userTurn(in Input) string {
	if t := strings.TrimSpace(in.Transcript); t != "" {
		return t
	}
	return strings.TrimSpace(in.OCRText)
}
