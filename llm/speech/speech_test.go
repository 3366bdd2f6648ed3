package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jjfwang/aceceed-edge/audio"
	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
	"github.com/jjfwang/aceceed-edge/types"
)

func useTempArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := artifact.Dir
	artifact.Dir = dir
	t.Cleanup(func() { artifact.Dir = old })
	return dir
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeAudio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, audio.WriteWAV(p, make([]byte, 64), audio.DefaultPCMFormat()))
	return p
}

// =============================================================================
// whisper.cpp
// =============================================================================

func TestWhisperCpp_Transcribe(t *testing.T) {
	useTempArtifacts(t)
	var gotName string
	var gotArgs []string
	runner := cmdexec.RunnerFunc(func(ctx context.Context, name string, args []string, opts ...cmdexec.Option) (cmdexec.Result, error) {
		gotName, gotArgs = name, args
		prefix := argAfter(args, "-of")
		return cmdexec.Result{}, os.WriteFile(prefix+".txt", []byte("  what is\n photosynthesis  \n"), 0o600)
	})

	stt := NewWhisperCppSTT(config.WhisperCppConfig{BinPath: "whisper-cli", ModelPath: "m.bin", Language: "en"}, runner, nil)
	text, err := stt.Transcribe(context.Background(), "/tmp/in.wav")
	require.NoError(t, err)
	assert.Equal(t, "what is photosynthesis", text)
	assert.Equal(t, "whisper-cli", gotName)
	assert.Equal(t, "m.bin", argAfter(gotArgs, "-m"))
	assert.Equal(t, "/tmp/in.wav", argAfter(gotArgs, "-f"))
	assert.Contains(t, gotArgs, "-otxt")
	assert.Equal(t, "en", argAfter(gotArgs, "-l"))

	_, err = os.Stat(argAfter(gotArgs, "-of") + ".txt")
	assert.True(t, os.IsNotExist(err), "transcript file is removed")
}

func TestWhisperCpp_NoLanguageFlag(t *testing.T) {
	useTempArtifacts(t)
	var gotArgs []string
	runner := cmdexec.RunnerFunc(func(ctx context.Context, name string, args []string, opts ...cmdexec.Option) (cmdexec.Result, error) {
		gotArgs = args
		return cmdexec.Result{}, os.WriteFile(argAfter(args, "-of")+".txt", []byte(""), 0o600)
	})

	core, logs := observer.New(zapcore.WarnLevel)
	text, err := NewWhisperCppSTT(config.WhisperCppConfig{BinPath: "w", ModelPath: "m"}, runner, zap.New(core)).
		Transcribe(context.Background(), "a.wav")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.NotContains(t, gotArgs, "-l")
	assert.Equal(t, 1, logs.FilterMessage("empty transcript from whisper.cpp").Len())
}

func TestWhisperCpp_Failure(t *testing.T) {
	useTempArtifacts(t)
	runner := cmdexec.RunnerFunc(func(ctx context.Context, name string, args []string, opts ...cmdexec.Option) (cmdexec.Result, error) {
		return cmdexec.Result{}, errors.New("exit status 1")
	})

	_, err := NewWhisperCppSTT(config.WhisperCppConfig{BinPath: "w", ModelPath: "m"}, runner, nil).
		Transcribe(context.Background(), "a.wav")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrTranscriptionFailed))
	assert.Contains(t, err.Error(), "whisper.cpp failed. Check binPath 'w' and modelPath 'm'.")
}

func TestWhisperCpp_Cancelled(t *testing.T) {
	useTempArtifacts(t)
	ctx, cancel := context.WithCancel(context.Background())
	runner := cmdexec.RunnerFunc(func(ctx context.Context, name string, args []string, opts ...cmdexec.Option) (cmdexec.Result, error) {
		cancel()
		return cmdexec.Result{}, errors.New("signal: killed")
	})

	_, err := NewWhisperCppSTT(config.WhisperCppConfig{}, runner, nil).Transcribe(ctx, "a.wav")
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// piper
// =============================================================================

func TestPiper_Synthesize(t *testing.T) {
	dir := useTempArtifacts(t)
	var stdin string
	var gotArgs []string
	runner := cmdexec.RunnerFunc(func(ctx context.Context, name string, args []string, opts ...cmdexec.Option) (cmdexec.Result, error) {
		gotArgs = args
		stdin, _ = cmdexec.Apply(opts...)
		return cmdexec.Result{}, os.WriteFile(argAfter(args, "--output_file"), []byte("RIFF"), 0o600)
	})

	path, err := NewPiperTTS(config.PiperConfig{BinPath: "piper", VoicePath: "v.onnx"}, runner, nil).
		Synthesize(context.Background(), "Plants make food from light.")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".wav"))
	assert.Equal(t, "v.onnx", argAfter(gotArgs, "--model"))
	assert.Equal(t, "Plants make food from light.", stdin)
}

func TestPiper_Failure(t *testing.T) {
	useTempArtifacts(t)
	runner := cmdexec.RunnerFunc(func(ctx context.Context, name string, args []string, opts ...cmdexec.Option) (cmdexec.Result, error) {
		return cmdexec.Result{}, cmdexec.ErrCommandNotFound
	})
	_, err := NewPiperTTS(config.PiperConfig{BinPath: "piper", VoicePath: "v"}, runner, nil).
		Synthesize(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrSynthesisFailed))
	assert.Contains(t, err.Error(), "Piper failed. Check binPath 'piper' and voicePath 'v'.")
}

// =============================================================================
// cloud providers
// =============================================================================

func TestOpenAISTT_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-stt", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "json", r.FormValue("response_format"))
		_, _, err := r.FormFile("file")
		assert.NoError(t, err)
		_, _ = w.Write([]byte(`{"text":" hello\n world "}`))
	}))
	defer srv.Close()

	p := NewOpenAISTTProvider(CloudConfig{APIKey: "sk-stt", BaseURL: srv.URL}, nil)
	text, err := p.Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestOpenAISTT_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAISTTProvider(CloudConfig{APIKey: "x", BaseURL: srv.URL}, nil).
		Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
	assert.False(t, types.IsRetryable(err))
}

func TestOpenAITTS_Synthesize(t *testing.T) {
	useTempArtifacts(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tts-1", body["model"])
		assert.Equal(t, "alloy", body["voice"])
		assert.Equal(t, "wav", body["response_format"])
		assert.Equal(t, "hi there", body["input"])
		_, _ = w.Write([]byte("RIFFDATA"))
	}))
	defer srv.Close()

	path, err := NewOpenAITTSProvider(CloudConfig{APIKey: "k", BaseURL: srv.URL}, nil).
		Synthesize(context.Background(), "hi there")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFFDATA", string(data))
}

func TestDeepgram_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/listen", r.URL.Path)
		assert.Equal(t, "nova-2", r.URL.Query().Get("model"))
		assert.Equal(t, "Token dg", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Len(t, body, audio.WAVHeaderSize+64)
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"make a study plan","confidence":0.9}]}]}}`))
	}))
	defer srv.Close()

	text, err := NewDeepgramProvider(CloudConfig{APIKey: "dg", BaseURL: srv.URL}, nil).
		Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)
	assert.Equal(t, "make a study plan", text)
}

func TestElevenLabs_WrapsPCM(t *testing.T) {
	useTempArtifacts(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "pcm_16000", r.URL.Query().Get("output_format"))
		assert.Equal(t, "el", r.Header.Get("xi-api-key"))
		_, _ = w.Write(make([]byte, 10))
	}))
	defer srv.Close()

	path, err := NewElevenLabsProvider(CloudConfig{APIKey: "el", BaseURL: srv.URL, Voice: "voice-1", SampleRate: 16000}, nil).
		Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, audio.WAVHeaderSize+10)
	assert.Equal(t, "RIFF", string(data[:4]))
}

// =============================================================================
// factory
// =============================================================================

func TestNewSTT(t *testing.T) {
	cfg := config.DefaultSTTConfig()
	p, err := NewSTT(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "whispercpp", p.Name())

	cfg.Mode = config.ModeCloud
	cfg.Cloud = config.SpeechCloud{Provider: "openai", APIKeyEnv: "ACECEED_TEST_STT_KEY"}
	t.Setenv("ACECEED_TEST_STT_KEY", "")
	_, err = NewSTT(cfg, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing API key in env ACECEED_TEST_STT_KEY")

	t.Setenv("ACECEED_TEST_STT_KEY", "sk")
	p, err = NewSTT(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai-stt", p.Name())

	cfg.Cloud.Provider = "deepgram"
	p, err = NewSTT(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "deepgram", p.Name())

	cfg.Cloud.Provider = "unknown"
	_, err = NewSTT(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewTTS(t *testing.T) {
	cfg := config.DefaultTTSConfig()
	p, err := NewTTS(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "piper", p.Name())

	cfg.Mode = config.ModeCloud
	cfg.Cloud = config.SpeechCloud{Provider: "elevenlabs", APIKeyEnv: "ACECEED_TEST_TTS_KEY"}
	t.Setenv("ACECEED_TEST_TTS_KEY", "el")
	p, err = NewTTS(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", p.Name())
}

func TestCloudStatus(t *testing.T) {
	ready, details := CloudStatus("STT", config.SpeechCloud{})
	assert.False(t, ready)
	assert.Equal(t, "Cloud STT configured without provider details", details)

	ready, details = CloudStatus("TTS", config.SpeechCloud{Provider: "openai"})
	assert.False(t, ready)
	assert.Equal(t, "Cloud TTS apiKeyEnv is not configured", details)

	t.Setenv("ACECEED_TEST_STATUS_KEY", "")
	ready, details = CloudStatus("TTS", config.SpeechCloud{Provider: "openai", APIKeyEnv: "ACECEED_TEST_STATUS_KEY"})
	assert.False(t, ready)
	assert.Equal(t, "Missing API key in env ACECEED_TEST_STATUS_KEY", details)

	t.Setenv("ACECEED_TEST_STATUS_KEY", "k")
	ready, details = CloudStatus("TTS", config.SpeechCloud{Provider: "openai", APIKeyEnv: "ACECEED_TEST_STATUS_KEY"})
	assert.True(t, ready)
	assert.Empty(t, details)
}

func TestCloudConfig_WithDefaults(t *testing.T) {
	cfg := CloudConfig{APIKey: "k", Voice: "nova"}.withDefaults(openAITTSDefaults)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "nova", cfg.Voice)
	assert.Equal(t, "tts-1", cfg.Model)
	assert.Equal(t, "https://api.openai.com", cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Timeout)

	el := CloudConfig{}.withDefaults(elevenLabsDefaults)
	assert.Equal(t, 22050, el.SampleRate)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", el.Voice)
}
