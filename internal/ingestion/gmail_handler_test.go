package ingestion

import (
	"testing"

	"google.golang.org/api/gmail/v1"
)

func TestExtractSenderName(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{"display name", "Jane Doe <jane@doe.dev>", "JaneDoe"},
		{"quoted display name", `"Jane Doe" <jane@doe.dev>`, "JaneDoe"},
		{"bare address", "jane@doe.dev", "jane"},
		{"garbage", "nobody", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &gmail.Message{Payload: &gmail.MessagePart{
				Headers: []*gmail.MessagePartHeader{{Name: "From", Value: tt.from}},
			}}
			if got := extractSenderName(msg); got != tt.want {
				t.Errorf("extractSenderName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPDFPartsWalksNestedParts(t *testing.T) {
	payload := &gmail.MessagePart{
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{}},
			{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{Filename: "resume.PDF", Body: &gmail.MessagePartBody{AttachmentId: "a1"}},
					{Filename: "photo.png", Body: &gmail.MessagePartBody{AttachmentId: "a2"}},
				},
			},
			{Filename: "cover.pdf", Body: &gmail.MessagePartBody{}},
		},
	}

	parts := pdfParts(payload)
	if len(parts) != 1 {
		t.Fatalf("Expected 1 PDF part, got %d", len(parts))
	}
	if parts[0].Body.AttachmentId != "a1" {
		t.Errorf("Expected attachment a1, got %s", parts[0].Body.AttachmentId)
	}
}
