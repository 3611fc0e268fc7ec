// Job Viewer - live view of transcription jobs
// Consumes job lifecycle events from Kafka and pushes them to browsers over
// WebSocket.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

//go:embed static/*
var staticFiles embed.FS

// JobEvent is a job started, completed or failed message.
type JobEvent struct {
	EventType     string `json:"eventType"`
	JobName       string `json:"jobName"`
	FileName      string `json:"fileName,omitempty"`
	Status        string `json:"status"`
	Provider      string `json:"provider,omitempty"`
	Text          string `json:"text,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

const writeWait = 5 * time.Second

// Hub fans events out to connected browsers. A client that cannot keep up
// is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan JobEvent
}

func newHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan JobEvent)}
}

func (h *Hub) add(conn *websocket.Conn) chan JobEvent {
	ch := make(chan JobEvent, 64)
	h.mu.Lock()
	h.clients[conn] = ch
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("Client connected. Total: %d", n)
	return ch
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	ch, ok := h.clients[conn]
	delete(h.clients, conn)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		close(ch)
		log.Printf("Client disconnected. Total: %d", n)
	}
}

func (h *Hub) broadcast(event JobEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- event:
		default:
			log.Printf("Client %s too slow, dropping", conn.RemoteAddr())
			delete(h.clients, conn)
			close(ch)
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
}

func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}
		events := hub.add(conn)

		// reader: only detects disconnects
		go func() {
			defer hub.remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		defer conn.Close()
		for event := range events {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("Write error: %v", err)
				hub.remove(conn)
				return
			}
		}
	}
}

func consumeKafka(ctx context.Context, hub *Hub, brokers []string, topic string, since time.Duration) {
	// partition reader without a consumer group works through port-forward
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-since)); err != nil {
		log.Printf("Could not seek %s: %v", topic, err)
	}
	log.Printf("Consuming from Kafka topic: %s partition 0 (last %v)", topic, since)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Kafka read error on %s: %v", topic, err)
			time.Sleep(time.Second)
			continue
		}

		var event JobEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("JSON unmarshal error: %v", err)
			continue
		}

		log.Printf("Received %s: job=%s status=%s", event.EventType, event.JobName, event.Status)
		hub.broadcast(event)
	}
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicStarted := flag.String("topic-started", "transcription.job.started", "Job started topic")
	topicCompleted := flag.String("topic-completed", "transcription.job.completed", "Job completed topic")
	since := flag.Duration("since", time.Hour, "Replay events newer than this")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := newHub()
	brokerList := strings.Split(*brokers, ",")
	go consumeKafka(ctx, hub, brokerList, *topicStarted, *since)
	go consumeKafka(ctx, hub, brokerList, *topicCompleted, *since)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("static files: %v", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", wsHandler(hub))

	srv := &http.Server{Addr: ":" + *port, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Printf("Job Viewer starting on http://localhost:%s", *port)
	log.Printf("   Kafka brokers: %s", *brokers)
	log.Printf("   Topics: %s, %s", *topicStarted, *topicCompleted)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
