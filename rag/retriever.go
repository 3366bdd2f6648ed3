package rag

import (
	"context"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/metrics"
)

// Options 检索参数
type Options struct {
	GradeBand      string
	Subjects       []string
	Limit          int
	IncludeSources bool
	SourceTypes    []string
}

// Retriever 在内存中的只读语料上检索，可被多个协程并发调用
type Retriever struct {
	chunks  []Chunk
	scorer  Scorer
	metrics *metrics.Collector
	logger  *zap.Logger
}

// Option 定制 Retriever
type Option func(*Retriever)

// WithScorer 替换默认的 LexicalScorer
func WithScorer(s Scorer) Option {
	return func(r *Retriever) { r.scorer = s }
}

// WithMetrics 记录每次返回的片段数
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Retriever) { r.metrics = c }
}

// NewRetriever 语料在构造时复制，之后不再修改
func NewRetriever(chunks []Chunk, logger *zap.Logger, opts ...Option) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retriever{
		chunks: slices.Clone(chunks),
		scorer: LexicalScorer{},
		logger: logger.With(zap.String("component", "rag")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open 从索引文件构造 Retriever
func Open(path string, logger *zap.Logger, opts ...Option) (*Retriever, error) {
	chunks, resolved, err := LoadIndex(path)
	if err != nil {
		return nil, err
	}
	r := NewRetriever(chunks, logger, opts...)
	r.logger.Info("loaded rag index", zap.Int("count", len(chunks)), zap.String("index_path", resolved))
	return r, nil
}

// Len 语料片段数
func (r *Retriever) Len() int { return len(r.chunks) }

type scored struct {
	chunk Chunk
	score float64
}

// Retrieve 过滤、打分、稳定排序、截断，并按需去掉来源标注。
// 没有匹配时返回空切片。
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make([]scored, 0, len(r.chunks))
	for _, c := range r.chunks {
		if !matches(c, opts) {
			continue
		}
		candidates = append(candidates, scored{chunk: c, score: r.scorer.Score(query, c)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	limit := opts.Limit
	if limit < 0 {
		limit = 0
	}
	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	out := make([]Chunk, len(candidates))
	for i, s := range candidates {
		out[i] = s.chunk
		out[i].Tags = slices.Clone(s.chunk.Tags)
		if !opts.IncludeSources {
			out[i].Source = ""
		}
	}

	r.metrics.RecordRetrieval(len(out))
	r.logger.Debug("retrieval completed", zap.Int("candidates", len(candidates)), zap.Int("returned", len(out)))
	return out, nil
}

func matches(c Chunk, opts Options) bool {
	if c.GradeBand != opts.GradeBand {
		return false
	}
	if len(opts.Subjects) > 0 && !slices.Contains(opts.Subjects, c.Subject) {
		return false
	}
	if len(opts.SourceTypes) > 0 && !slices.Contains(opts.SourceTypes, c.SourceType) {
		return false
	}
	return true
}
