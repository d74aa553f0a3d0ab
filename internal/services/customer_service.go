package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assurify/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CustomerService 客户与保单管理服务
type CustomerService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewCustomerService 创建客户服务
func NewCustomerService(db *gorm.DB, logger *logrus.Logger) *CustomerService {
	if logger == nil {
		logger = logrus.New()
	}
	return &CustomerService{
		db:     db,
		logger: logger,
	}
}

// CustomerCreateRequest 创建客户请求
type CustomerCreateRequest struct {
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone"`
	Language        string `json:"language"`
	AssignedAgentID string `json:"assigned_agent_id"`
}

// CustomerUpdateRequest 更新客户请求
type CustomerUpdateRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Language        *string `json:"language"`
	AssignedAgentID *string `json:"assigned_agent_id"`
}

// PolicyCreateRequest 为客户添加保单的请求
type PolicyCreateRequest struct {
	PolicyNumber   string     `json:"policy_number" binding:"required"`
	Type           string     `json:"type" binding:"required"`
	Premium        float64    `json:"premium"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	PaymentDueDate *time.Time `json:"payment_due_date"`
}

// CreateCustomer 创建客户
func (s *CustomerService) CreateCustomer(ctx context.Context, req *CustomerCreateRequest) (*models.Customer, error) {
	if req == nil {
		return nil, errors.New("request required")
	}

	var existing models.Customer
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("customer with email %s already exists", req.Email)
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	customer := &models.Customer{
		ID:              uuid.NewString(),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Language:        language,
		AssignedAgentID: req.AssignedAgentID,
	}

	if err := s.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer 获取客户及其保单
func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).Preload("Policies").First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer not found")
		}
		return nil, err
	}
	return &customer, nil
}

// ListCustomers 客户列表
func (s *CustomerService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.WithContext(ctx).Preload("Policies").Order("created_at DESC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// UpdateCustomer 更新客户
func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, req *CustomerUpdateRequest) (*models.Customer, error) {
	if req == nil {
		return nil, errors.New("request required")
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer not found")
		}
		return nil, err
	}

	if req.FirstName != nil {
		customer.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		customer.LastName = *req.LastName
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Language != nil {
		customer.Language = *req.Language
	}
	if req.AssignedAgentID != nil {
		customer.AssignedAgentID = *req.AssignedAgentID
	}

	if err := s.db.WithContext(ctx).Save(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// AddPolicy 为客户添加保单
func (s *CustomerService) AddPolicy(ctx context.Context, customerID string, req *PolicyCreateRequest) (*models.Policy, error) {
	if req == nil {
		return nil, errors.New("request required")
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer not found")
		}
		return nil, err
	}

	policy := &models.Policy{
		ID:             uuid.NewString(),
		CustomerID:     customer.ID,
		PolicyNumber:   req.PolicyNumber,
		Type:           req.Type,
		Premium:        req.Premium,
		IsActive:       true,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		PaymentDueDate: req.PaymentDueDate,
		PaymentStatus:  "pending",
	}

	if err := s.db.WithContext(ctx).Create(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}
