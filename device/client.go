// Package device is the client of the bridge process that owns the
// emulator window. The bridge captures screenshots and performs clicks.
package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/zeu5/royale-rl/arena"
	"github.com/zeu5/royale-rl/inference"
)

var ErrBridge = errors.New("device bridge request failed")

// Bridge implements both the actuation and the capture side of the
// device. The playfield size is fetched once on construction.
type Bridge struct {
	baseURL string
	client  *http.Client
	width   int
	height  int
}

var (
	_ arena.Actuator   = &Bridge{}
	_ inference.Frames = &Bridge{}
)

type playfieldResponse struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type playRequest struct {
	Slot int `json:"slot"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

type cardsResponse struct {
	Cards []string `json:"cards"`
}

type elixirResponse struct {
	Elixir int `json:"elixir"`
}

type matchOverResponse struct {
	Over bool `json:"over"`
}

type gameEndResponse struct {
	Result string `json:"result"`
}

func NewBridge(ctx context.Context, baseURL string, timeout time.Duration) (*Bridge, error) {
	b := &Bridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
	pf := &playfieldResponse{}
	if err := b.getJSON(ctx, "/playfield", pf); err != nil {
		return nil, fmt.Errorf("failed to read playfield: %w", err)
	}
	if pf.Width <= 0 || pf.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid playfield %dx%d", ErrBridge, pf.Width, pf.Height)
	}
	b.width, b.height = pf.Width, pf.Height
	return b, nil
}

func (b *Bridge) Playfield() (int, int) {
	return b.width, b.height
}

func (b *Bridge) PlayCard(ctx context.Context, slot, x, y int) error {
	return b.post(ctx, "/play", playRequest{Slot: slot, X: x, Y: y})
}

func (b *Bridge) Deselect(ctx context.Context) error {
	return b.post(ctx, "/deselect", nil)
}

func (b *Bridge) MatchOver(ctx context.Context) (bool, error) {
	out := &matchOverResponse{}
	if err := b.getJSON(ctx, "/match-over", out); err != nil {
		return false, err
	}
	return out.Over, nil
}

func (b *Bridge) GameEnd(ctx context.Context) (string, error) {
	out := &gameEndResponse{}
	if err := b.getJSON(ctx, "/game-end", out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// Capture returns the raw screenshot bytes
func (b *Bridge) Capture(ctx context.Context) ([]byte, error) {
	return b.get(ctx, "/capture")
}

// CaptureCards returns the per-slot crops, sent base64 encoded
func (b *Bridge) CaptureCards(ctx context.Context) ([][]byte, error) {
	out := &cardsResponse{}
	if err := b.getJSON(ctx, "/cards", out); err != nil {
		return nil, err
	}
	imgs := make([][]byte, len(out.Cards))
	for i, c := range out.Cards {
		img, err := base64.StdEncoding.DecodeString(c)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d: %s", ErrBridge, i, err)
		}
		imgs[i] = img
	}
	return imgs, nil
}

func (b *Bridge) Elixir(ctx context.Context) (int, error) {
	out := &elixirResponse{}
	if err := b.getJSON(ctx, "/elixir", out); err != nil {
		return 0, err
	}
	return out.Elixir, nil
}

func (b *Bridge) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return b.do(req)
}

func (b *Bridge) getJSON(ctx context.Context, path string, out interface{}) error {
	bs, err := b.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bs, out); err != nil {
		return fmt.Errorf("%w: bad response from %s: %s", ErrBridge, path, err)
	}
	return nil
}

func (b *Bridge) post(ctx context.Context, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = b.do(req)
	return err
}

func (b *Bridge) do(req *http.Request) ([]byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBridge, err)
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBridge, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s: %s", ErrBridge, req.URL.Path, resp.Status, strings.TrimSpace(string(bs)))
	}
	return bs, nil
}
