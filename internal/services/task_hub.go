package services

import (
	"net/http"
	"sync"
	"time"

	"assurify/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// TaskEvent 推送给代理人工作台的事件
type TaskEvent struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	AgentID   string      `json:"agent_id"`
	Timestamp time.Time   `json:"timestamp"`
}

type TaskClient struct {
	ID      string
	AgentID string
	Conn    *websocket.Conn
	Send    chan TaskEvent
	Hub     *TaskHub
}

// TaskHub 向已连接的代理人端推送新建任务
type TaskHub struct {
	clients    map[string]*TaskClient
	broadcast  chan TaskEvent
	register   chan *TaskClient
	unregister chan *TaskClient
	mutex      sync.RWMutex
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 生产环境需要验证源
	},
}

func NewTaskHub() *TaskHub {
	return &TaskHub{
		clients:    make(map[string]*TaskClient),
		broadcast:  make(chan TaskEvent, 16),
		register:   make(chan *TaskClient),
		unregister: make(chan *TaskClient),
	}
}

func (h *TaskHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			logrus.Infof("Task client %s connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				logrus.Infof("Task client %s disconnected", client.ID)
			}
			h.mutex.Unlock()

		case event := <-h.broadcast:
			h.mutex.Lock()
			for _, client := range h.clients {
				if event.AgentID != "" && client.AgentID != event.AgentID {
					continue
				}
				select {
				case client.Send <- event:
				default:
					close(client.Send)
					delete(h.clients, client.ID)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastTask 推送一条新建任务，只发给任务归属的代理人
func (h *TaskHub) BroadcastTask(task models.AutomatedTask) {
	h.broadcast <- TaskEvent{
		Type:      "task_created",
		Data:      task,
		AgentID:   task.AgentID,
		Timestamp: time.Now(),
	}
}

// GetClientCount 当前连接数
func (h *TaskHub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket 升级连接并接管读写
func (h *TaskHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &TaskClient{
		ID:      uuid.NewString(),
		AgentID: c.Query("agent_id"),
		Conn:    conn,
		Send:    make(chan TaskEvent, 16),
		Hub:     h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *TaskClient) writePump() {
	defer c.Conn.Close()
	for event := range c.Send {
		if err := c.Conn.WriteJSON(event); err != nil {
			logrus.Debugf("Task client %s write failed: %v", c.ID, err)
			return
		}
	}
}

func (c *TaskClient) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	for {
		// 客户端不发业务消息，读循环只用于感知断连
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
