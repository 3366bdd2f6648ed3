// Package audio 负责语音输入与输出：arecord 录音（流式或直接写文件）、
// aplay 播放、ALSA 设备探测以及 PCM 到 WAV 的封装。
package audio
