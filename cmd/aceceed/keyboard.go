package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/session"
)

// errNotTerminal 标准输入不是终端时无法监听按键
var errNotTerminal = errors.New("stdin is not a terminal")

// pttTarget 键盘按键驱动的会话目标
type pttTarget interface {
	IsActive() bool
	Bus() *session.Bus
}

// KeyboardPTT 回车键切换开始/停止，经事件总线交给 Controller.Listen 处理
type KeyboardPTT struct {
	in     io.Reader
	target pttTarget
	logger *zap.Logger
}

// NewKeyboardPTT in 为 *os.File 时必须是终端
func NewKeyboardPTT(in io.Reader, target pttTarget, logger *zap.Logger) (*KeyboardPTT, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if f, ok := in.(*os.File); ok && !isTerminal(f) {
		return nil, errNotTerminal
	}
	return &KeyboardPTT{
		in:     in,
		target: target,
		logger: logger.With(zap.String("component", "keyboard_ptt")),
	}, nil
}

// Run 阻塞到 ctx 结束或输入关闭
func (k *KeyboardPTT) Run(ctx context.Context) {
	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(k.in)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	k.logger.Info("press Enter to start or stop push-to-talk")
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-lines:
			if !ok {
				k.logger.Info("keyboard input closed")
				return
			}
			k.toggle()
		}
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (k *KeyboardPTT) toggle() {
	if k.target.IsActive() {
		k.target.Bus().Publish(session.StoppedEvent(session.SourceKeyboard))
		return
	}
	k.target.Bus().Publish(session.StartedEvent(session.SourceKeyboard))
}
