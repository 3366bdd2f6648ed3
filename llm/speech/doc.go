// 版权所有 Aceceed Edge Authors。
// 此源代码的使用由 MIT 许可规范，许可文本见 LICENSE 文件。

/*
包 speech 提供语音识别 (STT) 与语音合成 (TTS) 接入层，
本地后端基于 CLI（whisper.cpp、piper），云端后端基于 HTTP API。

# 核心接口

  - STTProvider：Transcribe(ctx, audioPath) 返回折叠空白后的转写文本。
  - TTSProvider：Synthesize(ctx, text) 返回可播放的 WAV 临时文件路径，
    由调用方负责删除。

# 提供者

  - WhisperCppSTT：whisper.cpp CLI，输出 <prefix>.txt 读取后删除。
  - PiperTTS：piper CLI，文本经 stdin 传入。
  - OpenAISTTProvider / OpenAITTSProvider：OpenAI audio API。
  - DeepgramProvider：Deepgram /v1/listen。
  - ElevenLabsProvider：ElevenLabs text-to-speech，PCM 封装为 WAV。

NewSTT 与 NewTTS 按配置的 mode、backend 与 cloud.provider 选择实现；
CloudStatus 给出云端配置的就绪说明，用于服务状态查询。
*/
package speech
