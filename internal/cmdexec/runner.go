package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"
)

// ErrCommandNotFound 可执行文件不存在或不在 PATH 中
var ErrCommandNotFound = errors.New("command not found")

// Result 子进程输出
type Result struct {
	Stdout string
	Stderr string
}

// Option 定制单次执行
type Option func(*options)

type options struct {
	stdin  string
	stdout io.Writer
}

// WithStdin 将文本写入子进程标准输入
func WithStdin(text string) Option {
	return func(o *options) { o.stdin = text }
}

// WithStdout 将标准输出直接流式写入 w，此时 Result.Stdout 为空
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// Runner 执行外部命令。ctx 取消会杀掉子进程。
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts ...Option) (Result, error)
}

// RunnerFunc 函数适配器
type RunnerFunc func(ctx context.Context, name string, args []string, opts ...Option) (Result, error)

// Run 实现 Runner
func (f RunnerFunc) Run(ctx context.Context, name string, args []string, opts ...Option) (Result, error) {
	return f(ctx, name, args, opts...)
}

// OSRunner 基于 os/exec 的默认实现
type OSRunner struct{}

// Run 实现 Runner
func (OSRunner) Run(ctx context.Context, name string, args []string, opts ...Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if o.stdout != nil {
		cmd.Stdout = o.stdout
	}
	cmd.Stderr = &stderr
	if o.stdin != "" {
		cmd.Stdin = strings.NewReader(o.stdin)
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, exec.ErrDot) || errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("%w: %s. Check config paths", ErrCommandNotFound, name)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	return res, fmt.Errorf("command failed (%s %s): %s", name, strings.Join(args, " "), strings.TrimSpace(res.Stderr))
}

// Apply 解析 opts，供测试替身等非 os/exec 的 Runner 实现读取
func Apply(opts ...Option) (stdin string, stdout io.Writer) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o.stdin, o.stdout
}
