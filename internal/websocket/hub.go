package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub ведет учет подключенных клиентов и их подписок на викторины.
// Единственный продюсер событий — EvaluationService, рассылающий
// quiz:results_available после коммита оценки.
type Hub struct {
	mu sync.RWMutex

	clients   map[*Client]bool
	quizRooms map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		quizRooms:  make(map[uint]map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
	}
}

// Run обрабатывает регистрацию и отключение клиентов.
// Запускается одной горутиной из main.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[WSHub] Клиент %s подключен (пользователь #%d)", client.id, client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for quizID, room := range h.quizRooms {
					if room[client] {
						delete(room, client)
						if len(room) == 0 {
							delete(h.quizRooms, quizID)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("[WSHub] Клиент %s отключен", client.id)
		}
	}
}

// Subscribe добавляет клиента в комнату викторины
func (h *Hub) Subscribe(client *Client, quizID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.quizRooms[quizID]
	if !ok {
		room = make(map[*Client]bool)
		h.quizRooms[quizID] = room
	}
	room[client] = true
}

// Unsubscribe убирает клиента из комнаты викторины
func (h *Hub) Unsubscribe(client *Client, quizID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.quizRooms[quizID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.quizRooms, quizID)
		}
	}
}

// BroadcastToQuiz отправляет событие всем подписчикам викторины.
// Медленные клиенты с переполненным буфером пропускаются.
//
// Блокировка удерживается на время отправки: unregister закрывает
// client.send под той же блокировкой, поэтому клиент, видимый в комнате,
// гарантированно имеет открытый канал. Отправка неблокирующая, так что
// удержание блокировки не зависит от скорости клиентов.
func (h *Hub) BroadcastToQuiz(quizID uint, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.quizRooms[quizID] {
		select {
		case c.send <- data:
		default:
			log.Printf("[WSHub] WARNING: буфер клиента %s переполнен, событие пропущено", c.id)
		}
	}
	return nil
}
