package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/dbarreiro/rundown-sync/app/cfg"
	"github.com/dbarreiro/rundown-sync/app/content"
)

const (
	defaultAPIBase = "https://api.twitter.com"

	profileImageFile = "FotoPerfil.jpg"
	postImageFile    = "FotoPost.jpg"
)

var (
	statusIDPattern     = regexp.MustCompile(`/status/(\d+)`)
	profileImageHDRegex = regexp.MustCompile(`_normal(\.\w+)$`)
)

var _ content.AssetFetcher = (*TwitterFetcher)(nil)

// TweetDescription is the record written next to the downloaded media.
// Image fields hold absolute local paths once downloaded, empty otherwise.
type TweetDescription struct {
	Text         string `json:"text"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	CreatedAt    string `json:"created_at"`
	ProfileImage string `json:"profile_image"`
	TweetImage   string `json:"tweet_image"`
	TweetVideo   string `json:"tweet_video"`
}

type apiResponse struct {
	Data struct {
		Text      string `json:"text"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"users"`
		Media []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"media"`
	} `json:"includes"`
}

// TwitterFetcher materializes tweet references: metadata via the API,
// profile and post images alongside, and a description record that marks
// the asset as complete. Best-effort by contract: every error is contained
// and logged here, none reaches the caller.
type TwitterFetcher struct {
	httpClient  *http.Client
	apiBase     string
	bearerToken string
	userAgent   string
}

func NewTwitterFetcher() *TwitterFetcher {
	c := cfg.Get()
	return &TwitterFetcher{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		apiBase:     defaultAPIBase,
		bearerToken: c.TwitterBearerToken,
		userAgent:   c.UserAgent,
	}
}

func (f *TwitterFetcher) Fetch(ctx context.Context, reference, targetDir string) {
	id, ok := statusID(reference)
	if !ok {
		slog.Warn("Cannot extract status ID from reference", "reference", reference)
		return
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		slog.Error("Failed to create target dir", "dir", targetDir, "error", err)
		return
	}

	resp, err := f.getTweetData(ctx, id)
	if err != nil {
		slog.Error("Failed to fetch tweet data", "reference", reference, "error", err)
		return
	}

	desc := TweetDescription{
		Text:      resp.Data.Text,
		CreatedAt: resp.Data.CreatedAt,
	}
	if len(resp.Includes.Users) > 0 {
		desc.Name = resp.Includes.Users[0].Name
		desc.Username = resp.Includes.Users[0].Username
	}

	if len(resp.Includes.Users) > 0 && resp.Includes.Users[0].ProfileImageURL != "" {
		// Swap the thumbnail suffix for the HD variant
		hdURL := profileImageHDRegex.ReplaceAllString(resp.Includes.Users[0].ProfileImageURL, "_400x400$1")
		path := filepath.Join(targetDir, profileImageFile)
		if err := f.downloadFile(ctx, hdURL, path); err != nil {
			slog.Error("Failed to download profile image", "url", hdURL, "error", err)
		} else {
			desc.ProfileImage = absPath(path)
		}
	}

	for _, media := range resp.Includes.Media {
		if media.Type != "photo" || media.URL == "" {
			continue
		}
		path := filepath.Join(targetDir, postImageFile)
		if err := f.downloadFile(ctx, media.URL, path); err != nil {
			slog.Error("Failed to download post image", "url", media.URL, "error", err)
		} else {
			desc.TweetImage = absPath(path)
		}
		break
	}

	if err := f.writeDescription(desc, targetDir); err != nil {
		slog.Error("Failed to write description file", "dir", targetDir, "error", err)
		return
	}

	slog.Info("Asset fetched", "reference", reference, "asset_id", id, "dir", targetDir)
}

func (f *TwitterFetcher) getTweetData(ctx context.Context, id string) (*apiResponse, error) {
	params := url.Values{}
	params.Set("expansions", "author_id,attachments.media_keys")
	params.Set("tweet.fields", "text,created_at")
	params.Set("user.fields", "name,username,profile_image_url")
	params.Set("media.fields", "url,type")

	endpoint := fmt.Sprintf("%s/2/tweets/%s?%s", f.apiBase, id, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.bearerToken)
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &parsed, nil
}

func (f *TwitterFetcher) downloadFile(ctx context.Context, fileURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, copyErr := io.Copy(out, resp.Body)
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write file: %w", copyErr)
	}

	return nil
}

func (f *TwitterFetcher) writeDescription(desc TweetDescription, targetDir string) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode description: %w", err)
	}
	return os.WriteFile(filepath.Join(targetDir, content.DescriptionFileName), data, 0644)
}

func statusID(reference string) (string, bool) {
	if m := statusIDPattern.FindStringSubmatch(reference); m != nil {
		return m[1], true
	}
	return "", false
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(abs)
}
