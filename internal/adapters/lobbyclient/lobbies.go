package lobbyclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dkeye/lobbyrelay/internal/domain"
)

// FetchLobbies lists the public lobbies from lobbyd's REST API at baseURL
// (e.g. http://localhost:8080).
func FetchLobbies(ctx context.Context, client *http.Client, baseURL string) ([]domain.LobbyInfo, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/api/lobbies", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch lobbies: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch lobbies: %s", ErrServer, resp.Status)
	}
	var body struct {
		Lobbies []domain.LobbyInfo `json:"lobbies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode lobbies: %w", err)
	}
	return body.Lobbies, nil
}
