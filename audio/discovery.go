package audio

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
)

// DefaultDevice ALSA 默认设备
const DefaultDevice = "default"

// SoundCard arecord -l / aplay -l 中的一行
type SoundCard struct {
	Card        string
	Device      string
	Description string
}

// ALSA 设备名
func (c SoundCard) ALSAName() string {
	return fmt.Sprintf("plughw:%s,%s", c.Card, c.Device)
}

var cardLine = regexp.MustCompile(`^card (\d+): (.+?), device (\d+): (.*)$`)

// ParseCardList 解析 `arecord -l` 或 `aplay -l` 的输出
func ParseCardList(output string) []SoundCard {
	var cards []SoundCard
	for _, line := range strings.Split(output, "\n") {
		m := cardLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		cards = append(cards, SoundCard{Card: m[1], Device: m[3], Description: m[2] + " " + m[4]})
	}
	return cards
}

// DiscoverInputDevice 选择录音设备：跳过 HDMI，优先 USB，探测失败时返回 default
func DiscoverInputDevice(ctx context.Context, runner cmdexec.Runner, logger *zap.Logger) string {
	return discover(ctx, runner, logger, "arecord")
}

// DiscoverOutputDevice 选择播放设备，规则同录音设备
func DiscoverOutputDevice(ctx context.Context, runner cmdexec.Runner, logger *zap.Logger) string {
	return discover(ctx, runner, logger, "aplay")
}

func discover(ctx context.Context, runner cmdexec.Runner, logger *zap.Logger, bin string) string {
	res, err := runner.Run(ctx, bin, []string{"-l"})
	if err != nil {
		logger.Warn("audio device discovery failed", zap.String("command", bin), zap.Error(err))
		return DefaultDevice
	}
	return pickDevice(ParseCardList(res.Stdout))
}

func pickDevice(cards []SoundCard) string {
	var candidates []SoundCard
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Description), "hdmi") {
			continue
		}
		candidates = append(candidates, c)
	}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Description), "usb") {
			return c.ALSAName()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].ALSAName()
	}
	return DefaultDevice
}
