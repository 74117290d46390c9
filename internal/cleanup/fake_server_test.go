package cleanup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeOpenAI is an OpenAI-compatible server serving /v1/models and
// /v1/chat/completions.
type fakeOpenAI struct {
	*httptest.Server

	mu         sync.Mutex
	reply      string
	models     []string
	modelsDown bool
	delay      time.Duration
	status     int
	lastBody   map[string]any
	lastAuth   string

	chatCalls  atomic.Int32
	modelCalls atomic.Int32
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{models: []string{"local-model"}}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", f.handleModels)
	mux.HandleFunc("/v1/chat/completions", f.handleChat)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOpenAI) baseURL() string {
	return f.URL + "/v1"
}

func (f *fakeOpenAI) setReply(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = reply
}

func (f *fakeOpenAI) setModelsDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modelsDown = down
}

func (f *fakeOpenAI) body() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeOpenAI) handleModels(w http.ResponseWriter, r *http.Request) {
	f.modelCalls.Add(1)
	f.mu.Lock()
	down := f.modelsDown
	models := append([]string(nil), f.models...)
	f.mu.Unlock()

	if down {
		http.Error(w, `{"error":{"message":"offline"}}`, http.StatusServiceUnavailable)
		return
	}
	data := make([]map[string]any, 0, len(models))
	for _, id := range models {
		data = append(data, map[string]any{"id": id, "object": "model", "created": 1, "owned_by": "local"})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
}

func (f *fakeOpenAI) handleChat(w http.ResponseWriter, r *http.Request) {
	f.chatCalls.Add(1)

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.lastBody = body
	f.lastAuth = r.Header.Get("Authorization")
	reply := f.reply
	delay := f.delay
	status := f.status
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		http.Error(w, `{"error":{"message":"boom"}}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   body["model"],
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": reply},
		}},
	})
}
