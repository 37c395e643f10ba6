package restgrader

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/criyle/go-grader/cmd/go-grader/model"
	"github.com/criyle/go-grader/worker"
)

type gradeHandle struct {
	worker worker.Worker
	logger *zap.Logger
}

// NewGradeHandle creates a new grading handle
func NewGradeHandle(worker worker.Worker, logger *zap.Logger) Register {
	return &gradeHandle{
		worker: worker,
		logger: logger,
	}
}

func (h *gradeHandle) Register(r *gin.Engine) {
	r.POST("/grade", h.handleGrade)
}

func (h *gradeHandle) handleGrade(ctx *gin.Context) {
	var req model.GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(err)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, err.Error())
		return
	}
	if req.Slug == "" && req.Lookback <= 0 {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, "no slug or lookback provided")
		return
	}
	h.logger.Sugar().Debugf("request: %+v", req)
	rtCh := h.worker.Submit(ctx.Request.Context(), model.ConvertRequest(&req))
	rt := <-rtCh
	h.logger.Sugar().Debugf("response: %+v", rt)
	if rt.Error != nil {
		ctx.Error(rt.Error)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, rt.Error.Error())
		return
	}
	ctx.JSON(http.StatusOK, model.ConvertResponse(rt))
}
