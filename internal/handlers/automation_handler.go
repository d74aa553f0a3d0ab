package handlers

import (
	"net/http"
	"strconv"

	"assurify/internal/metrics"
	"assurify/internal/services"

	"github.com/gin-gonic/gin"
)

// AutomationHandler 暴露提醒引擎的运行入口与产出查询
type AutomationHandler struct {
	service *services.ReminderService
	hub     *services.TaskHub
}

func NewAutomationHandler(service *services.ReminderService, hub *services.TaskHub) *AutomationHandler {
	return &AutomationHandler{service: service, hub: hub}
}

// RunChecks 手动触发一次续保+缴费检查
func (h *AutomationHandler) RunChecks(c *gin.Context) {
	language := c.DefaultQuery("language", "en")

	summaries, err := h.service.RunChecks(c.Request.Context(), language)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to run checks", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "checks completed", Data: summaries})
}

// ListTasks 自动化任务列表
func (h *AutomationHandler) ListTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	tasks, err := h.service.ListTasks(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list tasks", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// ListLog 去重日志列表
func (h *AutomationHandler) ListLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.service.ListLogEntries(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list log entries", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ListRuns 运行审计记录列表
func (h *AutomationHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list runs", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// ListRules 当前生效规则，按领域返回
func (h *AutomationHandler) ListRules(c *gin.Context) {
	ctx := c.Request.Context()

	renewal, err := h.service.RenewalRules(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to load renewal rules", Message: err.Error()})
		return
	}
	payment, err := h.service.PaymentRules(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to load payment rules", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"renewal": renewal,
		"payment": payment,
	})
}

// Metrics 引擎计数器快照
func (h *AutomationHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Snapshot())
}

// HandleWebSocket 任务事件流
func (h *AutomationHandler) HandleWebSocket(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Task stream disabled"})
		return
	}
	h.hub.HandleWebSocket(c)
}

// RegisterAutomationRoutes 注册路由
func RegisterAutomationRoutes(r *gin.RouterGroup, handler *AutomationHandler) {
	auto := r.Group("/automations")
	{
		auto.POST("/run", handler.RunChecks)
		auto.GET("/tasks", handler.ListTasks)
		auto.GET("/log", handler.ListLog)
		auto.GET("/runs", handler.ListRuns)
		auto.GET("/rules", handler.ListRules)
		auto.GET("/ws", handler.HandleWebSocket)
	}
}
