package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assurify/internal/automation"
	"assurify/internal/models"
	"assurify/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handlerToday = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func setupAutomationRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Policy{},
		&models.AutomatedTask{},
		&models.ReminderLogEntry{},
		&models.AutomationRun{},
	))

	endDate := handlerToday.AddDate(0, 0, 30)
	require.NoError(t, db.Create(&models.User{
		ID: "AG-1", Name: "Dana Reyes", Email: "dana@agency.test", Role: "agent", Status: "active",
	}).Error)
	require.NoError(t, db.Create(&models.Customer{
		ID: "C1", FirstName: "Ana", LastName: "Silva", Email: "ana@example.test",
		Language: "en", AssignedAgentID: "AG-1",
		Policies: []models.Policy{
			{ID: "P1", PolicyNumber: "POL-2201", Type: "auto", Premium: 420, IsActive: true, EndDate: &endDate},
		},
	}).Error)

	quiet := logrus.New()
	quiet.SetLevel(logrus.PanicLevel)

	engine := automation.NewEngine(automation.EngineConfig{
		RenewalRules: automation.NewStaticRuleProvider(automation.DefaultRenewalRules()),
		PaymentRules: automation.NewStaticRuleProvider(nil),
		Logger:       quiet,
		Now:          func() time.Time { return handlerToday },
	})
	service := services.NewReminderService(db, quiet, engine, nil)

	router := gin.New()
	api := router.Group("/api")
	RegisterAutomationRoutes(api, NewAutomationHandler(service, nil))
	return router
}

func TestRunChecksEndpoint(t *testing.T) {
	router := setupAutomationRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/automations/run?language=en", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "checks completed", resp.Message)

	summaries, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, summaries, 2)
}

func TestListTasksEndpoint(t *testing.T) {
	router := setupAutomationRouter(t)

	// 先跑一次产生任务
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/automations/run", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/automations/tasks", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var tasks []models.AutomatedTask
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "renewal_reminder", tasks[0].Type)
	assert.Equal(t, "AG-1", tasks[0].AgentID)
}

func TestListLogEndpoint(t *testing.T) {
	router := setupAutomationRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/automations/run", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/automations/log", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var entries []models.ReminderLogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "RR-001_P1", entries[0].LogKey)
}

func TestListRulesEndpoint(t *testing.T) {
	router := setupAutomationRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/automations/rules", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string][]models.RuleDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["renewal"], 2)
	assert.Empty(t, resp["payment"])
}

func TestWebSocketDisabledWithoutHub(t *testing.T) {
	router := setupAutomationRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/automations/ws", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
