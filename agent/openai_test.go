package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAIClientToolCall(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"finish_reason":"tool_calls","message":{"role":"assistant","content":null,
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"delete_interview","arguments":"{\"interview_id\":10}"}}]}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1/", "sk-test", "test-model", time.Second)
	resp, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "Delete interview 10"}}, catalog)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if got["model"] != "test-model" || got["tool_choice"] != "auto" {
		t.Errorf("request = %v", got)
	}
	if tools, _ := got["tools"].([]any); len(tools) != len(catalog) {
		t.Errorf("tools sent = %d, want %d", len(tools), len(catalog))
	}
	if resp.Content != "" || resp.FinishReason != "tool_calls" || len(resp.ToolCalls) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_1" || call.Function.Name != "delete_interview" || call.Function.Arguments != `{"interview_id":10}` {
		t.Errorf("tool call = %+v", call)
	}
}

func TestOpenAIClientTextWithoutTools(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		w.Write([]byte(`{"choices":[{"finish_reason":"stop","message":{"role":"assistant","content":"Done."}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "test-model", time.Second)
	resp, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Done." {
		t.Errorf("content = %q", resp.Content)
	}
	if strings.Contains(raw, `"tools"`) || strings.Contains(raw, `"tool_choice"`) {
		t.Errorf("request without tools carried a tool catalog: %s", raw)
	}
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http status", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, "status 429"},
		{"error payload", http.StatusOK, `{"error":{"message":"model not found"}}`, "model not found"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"garbage", http.StatusOK, `<html>`, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAIClient(srv.URL, "sk-test", "m", time.Second).Chat(context.Background(), nil, nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("http://127.0.0.1:1", "", "m", time.Second).Chat(context.Background(), nil, nil)
	if !errors.Is(err, ErrLLMNotConfigured) {
		t.Errorf("err = %v, want ErrLLMNotConfigured", err)
	}
}
