package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ProgressCallback reports download progress
type ProgressCallback func(current, total int, message string)

// GmailHandler downloads PDF resumes attached to Gmail messages
type GmailHandler struct {
	service    *gmail.Service
	uploadsDir string
	progressCb ProgressCallback
}

// NewGmailHandler creates a Gmail handler from an OAuth client credentials
// file. The user token is cached at tokenPath; when it is missing the
// desktop authorization flow runs on the console.
func NewGmailHandler(ctx context.Context, credentialsPath, tokenPath, uploadsDir string, cb ProgressCallback) (*GmailHandler, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client, err := getClient(ctx, config, tokenPath)
	if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return &GmailHandler{
		service:    srv,
		uploadsDir: uploadsDir,
		progressCb: cb,
	}, nil
}

// getClient retrieves a token, saves it, then returns the generated client
func getClient(ctx context.Context, config *oauth2.Config, tokFile string) (*http.Client, error) {
	tok, err := tokenFromFile(tokFile)
	if err != nil {
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokFile, tok); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return config.Client(ctx, tok), nil
}

// getTokenFromWeb requests a token from the web
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	log.Printf("Saving credential file to: %s", path)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func (gh *GmailHandler) reportProgress(current, total int, message string) {
	if gh.progressCb != nil {
		gh.progressCb(current, total, message)
	}
}

// FetchAttachments downloads the PDF attachments of every message whose
// subject matches. It returns the paths written.
func (gh *GmailHandler) FetchAttachments(ctx context.Context, subject string) ([]string, error) {
	if err := os.MkdirAll(gh.uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	user := "me"
	query := fmt.Sprintf("subject:%s has:attachment", subject)

	r, err := gh.service.Users.Messages.List(user).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	if len(r.Messages) == 0 {
		return nil, fmt.Errorf("no messages found with subject: %s", subject)
	}

	var saved []string
	for i, msg := range r.Messages {
		select {
		case <-ctx.Done():
			return saved, ctx.Err()
		default:
		}

		gh.reportProgress(i, len(r.Messages), fmt.Sprintf("Fetching message %d/%d", i+1, len(r.Messages)))

		message, err := gh.service.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			log.Printf("Unable to retrieve message %s: %v", msg.Id, err)
			continue
		}

		senderName := extractSenderName(message)

		for _, part := range pdfParts(message.Payload) {
			attachment, err := gh.service.Users.Messages.Attachments.Get(user, msg.Id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				log.Printf("Unable to retrieve attachment: %v", err)
				continue
			}

			data, err := base64.URLEncoding.DecodeString(attachment.Data)
			if err != nil {
				log.Printf("Unable to decode attachment: %v", err)
				continue
			}
			if !IsPDFData(data) {
				log.Printf("Skipping %s: not a PDF", part.Filename)
				continue
			}

			newFilename := fmt.Sprintf("%s_%s.pdf", senderName, uuid.NewString())
			filePath := filepath.Join(gh.uploadsDir, newFilename)
			if err := os.WriteFile(filePath, data, 0644); err != nil {
				log.Printf("Unable to write file %s: %v", filePath, err)
				continue
			}

			log.Printf("Downloaded: %s", newFilename)
			saved = append(saved, filePath)
		}
	}

	gh.reportProgress(len(r.Messages), len(r.Messages), fmt.Sprintf("Downloaded %d resumes", len(saved)))
	return saved, nil
}

// pdfParts walks a message tree and returns attachment parts named *.pdf
func pdfParts(part *gmail.MessagePart) []*gmail.MessagePart {
	if part == nil {
		return nil
	}
	var out []*gmail.MessagePart
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" &&
		strings.EqualFold(filepath.Ext(part.Filename), ".pdf") {
		out = append(out, part)
	}
	for _, p := range part.Parts {
		out = append(out, pdfParts(p)...)
	}
	return out
}

// extractSenderName extracts the sender's name from email headers
func extractSenderName(message *gmail.Message) string {
	for _, header := range message.Payload.Headers {
		if header.Name == "From" {
			// Parse "Name <email@example.com>" format
			from := header.Value
			if idx := strings.Index(from, "<"); idx > 0 {
				name := strings.TrimSpace(from[:idx])
				name = strings.ReplaceAll(name, " ", "")
				return strings.Trim(name, `"`)
			}
			// If no name, use email prefix
			if idx := strings.Index(from, "@"); idx > 0 {
				return from[:idx]
			}
			return "Unknown"
		}
	}
	return "Unknown"
}
