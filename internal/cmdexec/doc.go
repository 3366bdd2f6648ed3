// Package cmdexec 封装外部命令调用（arecord、aplay、whisper.cpp、piper、rpicam-still），
// 以 Runner 接口让上层组件可以在测试中替换子进程。
package cmdexec
