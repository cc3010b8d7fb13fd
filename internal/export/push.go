package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"
)

const pushContentType = "text/plain; version=0.0.4; charset=utf-8"

// Push sends a Prometheus text payload to a remote write endpoint.
// Authentication tries a Bearer token first (modern hosted endpoints),
// then falls back to Basic auth with user:token on a 401.
func Push(ctx context.Context, url, user, token string, payload []byte) error {
	client := &http.Client{Timeout: 30 * time.Second}

	status, body, err := send(ctx, client, url, payload, "Bearer "+token)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	if accepted(status) {
		return nil
	}

	if status == http.StatusUnauthorized {
		basic := base64.StdEncoding.EncodeToString([]byte(user + ":" + token))
		status, body, err = send(ctx, client, url, payload, "Basic "+basic)
		if err != nil {
			return fmt.Errorf("push metrics: %w", err)
		}
		if accepted(status) {
			return nil
		}
		return fmt.Errorf("push metrics: authentication failed with both bearer and basic auth: HTTP %d: %s", status, body)
	}

	return fmt.Errorf("push metrics: HTTP %d: %s", status, body)
}

func send(ctx context.Context, client *http.Client, url string, payload []byte, authorization string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", pushContentType)
	req.Header.Set("User-Agent", "convmetrics/0.1.0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(bytes.TrimSpace(body)), nil
}

func accepted(status int) bool {
	return status == http.StatusOK || status == http.StatusAccepted || status == http.StatusNoContent
}
