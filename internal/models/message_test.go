package models_test

import (
	"strings"
	"testing"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
)

func TestConversationHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []models.ChatMessage
		want    string
	}{
		{
			name: "Empty",
			want: "",
		},
		{
			name: "Alternating speakers",
			history: []models.ChatMessage{
				models.NewUserMessage("I got a ticket", true),
				models.NewAIMessage("Where were you stopped?"),
				models.NewUserMessage("On the highway", false),
			},
			want: "Student: I got a ticket\nAssistant: Where were you stopped?\nStudent: On the highway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := models.ConversationHistory(tt.history); got != tt.want {
				t.Errorf("ConversationHistory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	topics := models.Topics()
	wantIDs := []string{"tenant-rights", "traffic-stops", "protest-guidelines", "car-accident"}
	if len(topics) != len(wantIDs) {
		t.Fatalf("Topics() = %d topics, want %d", len(topics), len(wantIDs))
	}
	for i, id := range wantIDs {
		if topics[i].ID != id {
			t.Errorf("Topics()[%d].ID = %q, want %q", i, topics[i].ID, id)
		}
	}

	topics[0].Title = "changed"
	if got, _ := models.FindTopic("tenant-rights"); got.Title != "Tenant Rights" {
		t.Error("Topics() should return a copy")
	}

	if _, ok := models.FindTopic(models.CustomQueryTopicID); ok {
		t.Error("custom-query is not a predefined topic")
	}

	for _, r := range models.Resources() {
		if !strings.HasPrefix(r.Website, "https://") {
			t.Errorf("resource %q website = %q, want an absolute https URL", r.Name, r.Website)
		}
		if strings.TrimSpace(r.Phone) != r.Phone {
			t.Errorf("resource %q phone has surrounding spaces", r.Name)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		notWant []string
	}{
		{
			name:    "Emphasis and lists",
			content: "**Stay calm.**\n\n- Keep your hands visible\n- Ask if you are free to go",
			want:    []string{"<strong>Stay calm.</strong>", "<li>Keep your hands visible</li>"},
		},
		{
			name:    "Raw HTML is dropped",
			content: "Hello <script>alert(1)</script>",
			notWant: []string{"<script>"},
		},
		{
			name:    "Hard wraps",
			content: "line one\nline two",
			want:    []string{"<br>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.RenderMarkdown(tt.content)
			if err != nil {
				t.Fatalf("RenderMarkdown() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(got), w) {
					t.Errorf("RenderMarkdown() = %q, want it to contain %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(string(got), w) {
					t.Errorf("RenderMarkdown() = %q, should not contain %q", got, w)
				}
			}
		})
	}
}
