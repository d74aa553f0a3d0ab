package handlers

import (
	"net/http"

	"assurify/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CustomerHandler 客户与保单管理接口
type CustomerHandler struct {
	service *services.CustomerService
	logger  *logrus.Logger
}

func NewCustomerHandler(service *services.CustomerService, logger *logrus.Logger) *CustomerHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &CustomerHandler{service: service, logger: logger}
}

// CreateCustomer 创建客户
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CustomerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	customer, err := h.service.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to create customer", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// ListCustomers 客户列表
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.service.ListCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list customers", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, customers)
}

// GetCustomer 获取客户详情
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.service.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if err.Error() == "customer not found" {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: "Failed to get customer", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer 更新客户
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req services.CustomerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	customer, err := h.service.UpdateCustomer(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		status := http.StatusBadRequest
		if err.Error() == "customer not found" {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: "Failed to update customer", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// AddPolicy 为客户添加保单
func (h *CustomerHandler) AddPolicy(c *gin.Context) {
	var req services.PolicyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	policy, err := h.service.AddPolicy(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		status := http.StatusBadRequest
		if err.Error() == "customer not found" {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: "Failed to add policy", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, policy)
}

// RegisterCustomerRoutes 注册路由
func RegisterCustomerRoutes(r *gin.RouterGroup, handler *CustomerHandler) {
	customers := r.Group("/customers")
	{
		customers.GET("", handler.ListCustomers)
		customers.POST("", handler.CreateCustomer)
		customers.GET(":id", handler.GetCustomer)
		customers.PUT(":id", handler.UpdateCustomer)
		customers.POST(":id/policies", handler.AddPolicy)
	}
}
