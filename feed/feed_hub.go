package feed

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sweetlayer/cakeshop/models"
)

// Event types pushed over the order feed.
const (
	EventOrderCreated  = "order_created"
	EventOrderUpdate   = "order_update"
	EventPaymentUpdate = "payment_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	role   string
	userID uint
}

// Hub holds every connected feed client. Admins see every order event;
// customers only see events for their own orders.
type Hub struct {
	clients map[*websocket.Conn]client
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]client),
}

// RegisterClient adds a connection with its identity.
func RegisterClient(conn *websocket.Conn, role string, userID uint) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = client{role: role, userID: userID}
}

// UnregisterClient removes and closes a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastOrderCreated announces a freshly submitted order.
func BroadcastOrderCreated(order models.Order) {
	broadcastOrder(Message{Event: EventOrderCreated, Data: order}, order.UserID)
}

// BroadcastOrderUpdate announces an admin status change.
func BroadcastOrderUpdate(order models.Order) {
	broadcastOrder(Message{Event: EventOrderUpdate, Data: order}, order.UserID)
}

// BroadcastPaymentUpdate announces a capture result together with the
// order it settles.
func BroadcastPaymentUpdate(payment models.Payment, order models.Order) {
	broadcastOrder(Message{
		Event: EventPaymentUpdate,
		Data: map[string]interface{}{
			"payment": payment,
			"order":   order,
		},
	}, order.UserID)
}

// broadcastOrder sends the message to all admins and to the owning
// customer's connections.
func broadcastOrder(msg Message, ownerID uint) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	for conn, cl := range hub.clients {
		if cl.role != models.RoleAdmin && cl.userID != ownerID {
			continue
		}
		// Write failures are handled on the reader side when the
		// connection drops.
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}
