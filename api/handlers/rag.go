package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/api"
	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/rag"
	"github.com/jjfwang/aceceed-edge/session"
	"github.com/jjfwang/aceceed-edge/types"
)

// RAGHandler 会话之外的知识检索
type RAGHandler struct {
	retriever session.Retriever
	cfg       config.RAGConfig
	logger    *zap.Logger
}

// NewRAGHandler retriever 为 nil 表示未启用检索
func NewRAGHandler(retriever session.Retriever, cfg config.RAGConfig, logger *zap.Logger) *RAGHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RAGHandler{
		retriever: retriever,
		cfg:       cfg,
		logger:    logger.With(zap.String("handler", "rag")),
	}
}

// HandleSearch 处理 POST /v1/rag/search
// @Summary 知识检索
// @Tags 知识
// @Accept json
// @Produce json
// @Param request body api.RAGSearchRequest true "查询"
// @Success 200 {object} api.RAGSearchResponse "检索结果"
// @Failure 400 {object} api.PTTResponse "参数错误"
// @Failure 404 {object} api.PTTResponse "未启用检索"
// @Router /v1/rag/search [post]
func (h *RAGHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.retriever == nil || !h.cfg.Enabled {
		WriteErrorMessage(w, http.StatusNotFound, "RAG is disabled")
		return
	}

	var req api.RAGSearchRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "query is required"), h.logger)
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = h.cfg.MaxChunks
	}

	chunks, err := h.retriever.Retrieve(r.Context(), query, rag.Options{
		GradeBand:      h.cfg.GradeBand,
		Subjects:       h.cfg.Subjects,
		Limit:          limit,
		IncludeSources: h.cfg.IncludeSources,
		SourceTypes:    h.cfg.SourceTypes,
	})
	if err != nil {
		WriteError(w, types.NewError(types.ErrRetrievalFailed, "RAG retrieval failed").WithCause(err), h.logger)
		return
	}
	if chunks == nil {
		chunks = []rag.Chunk{}
	}
	WriteJSON(w, http.StatusOK, api.RAGSearchResponse{Chunks: chunks})
}
