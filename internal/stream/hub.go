package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"backend-trailrecorder/internal/shared/geo"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "recording:"
	channelSuffix  = ":path"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Hub fans path updates out to websocket clients, keyed by recording ID.
// With Redis configured, updates go through pub/sub so that every
// instance's clients see them; otherwise they are delivered locally.
type Hub struct {
	redis     *redis.Client
	pubsub    *redis.PubSub
	outbound  chan message
	done      chan struct{}
	clients   map[string]map[*Client]struct{}
	mu        sync.RWMutex
	closeOnce sync.Once
}

type message struct {
	recordingID string
	payload     []byte
}

type Client struct {
	RecordingID string
	Send        chan []byte
}

// PathEvent is the message pushed to renderers after every path change.
type PathEvent struct {
	RecordingID string      `json:"recording_id"`
	Track       []geo.Point `json:"track"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		clients: map[string]map[*Client]struct{}{},
		done:    make(chan struct{}),
	}

	if redisClient != nil {
		pubsub := redisClient.PSubscribe(context.Background(), channelPattern)
		if _, err := pubsub.Receive(context.Background()); err != nil {
			log.Printf("redis subscribe failed, delivering locally: %v", err)
			_ = pubsub.Close()
			return h
		}
		h.redis = redisClient
		h.pubsub = pubsub
		h.outbound = make(chan message, 256)
		go h.subscribeRedis()
		go h.publishRedis()
	}
	return h
}

func (h *Hub) Register(recordingID string) *Client {
	client := &Client{
		RecordingID: recordingID,
		Send:        make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[recordingID] == nil {
		h.clients[recordingID] = map[*Client]struct{}{}
	}
	h.clients[recordingID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if recordingClients, ok := h.clients[client.RecordingID]; ok {
		delete(recordingClients, client)
		if len(recordingClients) == 0 {
			delete(h.clients, client.RecordingID)
		}
	}
	close(client.Send)
}

// Broadcast never blocks: slow clients miss messages, and so does Redis
// when its outbound queue is full.
func (h *Hub) Broadcast(recordingID string, payload []byte) {
	if h.outbound == nil {
		h.deliver(recordingID, payload)
		return
	}
	select {
	case h.outbound <- message{recordingID: recordingID, payload: payload}:
	default:
		log.Printf("redis outbound queue full, dropping update for %s", recordingID)
	}
}

// PathChanged lets the hub act as the recorder's map renderer.
func (h *Hub) PathChanged(recordingID string, path []geo.Point) {
	if path == nil {
		path = []geo.Point{}
	}
	payload, err := json.Marshal(PathEvent{RecordingID: recordingID, Track: path})
	if err != nil {
		log.Printf("encode path event: %v", err)
		return
	}
	h.Broadcast(recordingID, payload)
}

func (h *Hub) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.done)
		if h.pubsub != nil {
			err = h.pubsub.Close()
		}
	})
	return err
}

func (h *Hub) deliver(recordingID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[recordingID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) publishRedis() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.outbound:
			err := h.redis.Publish(context.Background(), redisChannel(msg.recordingID), msg.payload).Err()
			if err != nil {
				log.Printf("redis publish error: %v", err)
				h.deliver(msg.recordingID, msg.payload)
			}
		}
	}
}

func (h *Hub) subscribeRedis() {
	for msg := range h.pubsub.Channel() {
		recordingID := recordingIDFromChannel(msg.Channel)
		if recordingID == "" {
			continue
		}
		h.deliver(recordingID, []byte(msg.Payload))
	}
}

func redisChannel(recordingID string) string {
	return channelPrefix + recordingID + channelSuffix
}

func recordingIDFromChannel(ch string) string {
	// recording:{id}:path
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
