package vision

import "context"

// Detection 单个检测器对一张照片的判断
type Detection struct {
	PaperPresent bool    `json:"paperPresent"`
	MotionScore  float64 `json:"motionScore"`
}

// Result 带检测器 id 的检测结果
type Result struct {
	ID string `json:"id"`
	Detection
}

// Detector 图像检测器
type Detector interface {
	ID() string
	Detect(ctx context.Context, image []byte) (Detection, error)
}

// neutral 检测器失败或超时时的替代结果
var neutral = Detection{PaperPresent: false, MotionScore: 0}

// paperThreshold 图像超过该大小视为拍到了纸张
const paperThreshold = 50 * 1024

// SimpleActivityDetector 用图像大小粗略判断画面中是否有纸张
type SimpleActivityDetector struct{}

func (SimpleActivityDetector) ID() string { return "simple-activity" }

func (SimpleActivityDetector) Detect(_ context.Context, image []byte) (Detection, error) {
	return Detection{PaperPresent: len(image) > paperThreshold, MotionScore: 0}, nil
}

// HailoStubDetector Hailo 加速卡检测器的占位实现
type HailoStubDetector struct{}

func (HailoStubDetector) ID() string { return "hailo-stub" }

func (HailoStubDetector) Detect(context.Context, []byte) (Detection, error) {
	return neutral, nil
}

// DefaultDetectors 运行时默认注册的检测器
func DefaultDetectors() []Detector {
	return []Detector{SimpleActivityDetector{}, HailoStubDetector{}}
}

// AnyPaper 是否有检测器报告了纸张
func AnyPaper(results []Result) bool {
	for _, r := range results {
		if r.PaperPresent {
			return true
		}
	}
	return false
}

// MaxMotion 所有结果中最大的运动分数，没有结果时为 0
func MaxMotion(results []Result) float64 {
	var best float64
	for i, r := range results {
		if i == 0 || r.MotionScore > best {
			best = r.MotionScore
		}
	}
	return best
}
