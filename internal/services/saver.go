package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"inpaint-masker/internal/logger"
	"inpaint-masker/internal/models"
)

// SaveRequest is one mask snapshot to persist.
type SaveRequest struct {
	SessionID string
	Filename  string
	MaskData  string
	CreatedAt time.Time
}

// SaveResult reports how a SaveRequest ended. Every submitted request produces
// exactly one result.
type SaveResult struct {
	Request  SaveRequest
	Status   models.SaveStatus
	Response interface{} // any JSON value the endpoint replied with
	Err      error
	Duration time.Duration
}

// ResultHandler receives save results on the saver's worker goroutines.
type ResultHandler func(SaveResult)

type savePayload struct {
	MaskData string `json:"maskData"`
	Filename string `json:"filename"`
}

// saveLane holds the per-session queue: at most one request in flight and at most
// one waiting behind it.
type saveLane struct {
	pending *SaveRequest
	running bool
}

type SaverOptions struct {
	Endpoint string
	Timeout  time.Duration
	Debounce time.Duration
	Client   *http.Client
}

// MaskSaver posts masks to the save endpoint without blocking the caller. Requests
// for one session are sent one at a time and a newer request replaces any request
// still waiting, so only the latest mask of a burst is sent after the one in flight.
type MaskSaver struct {
	endpoint string
	debounce time.Duration
	client   *http.Client
	logger   logger.Logger

	mu       sync.Mutex
	lanes    map[string]*saveLane
	onResult ResultHandler
	closed   bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewMaskSaver(opts SaverOptions, log logger.Logger) *MaskSaver {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MaskSaver{
		endpoint: opts.Endpoint,
		debounce: opts.Debounce,
		client:   client,
		logger:   log,
		lanes:    make(map[string]*saveLane),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetResultHandler installs the callback invoked for every finished request.
func (s *MaskSaver) SetResultHandler(handler ResultHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = handler
}

// Submit queues req and returns immediately.
func (s *MaskSaver) Submit(req SaveRequest) {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.emit(SaveResult{Request: req, Status: models.SaveFailed, Err: context.Canceled})
		return
	}

	lane, ok := s.lanes[req.SessionID]
	if !ok {
		lane = &saveLane{}
		s.lanes[req.SessionID] = lane
	}

	replaced := lane.pending
	lane.pending = &req

	if !lane.running {
		lane.running = true
		s.wg.Add(1)
		go s.drain(req.SessionID, lane)
	}
	s.mu.Unlock()

	if replaced != nil {
		s.logger.Debug("MaskSaver", "pending save superseded", map[string]interface{}{
			"session":  replaced.SessionID,
			"filename": replaced.Filename,
			"by":       req.Filename,
		})
		s.emit(SaveResult{Request: *replaced, Status: models.SaveSuperseded})
	}
}

// drain sends the lane's pending requests until none is left.
func (s *MaskSaver) drain(sessionID string, lane *saveLane) {
	defer s.wg.Done()

	for {
		if s.debounce > 0 {
			timer := time.NewTimer(s.debounce)
			select {
			case <-timer.C:
			case <-s.ctx.Done():
				timer.Stop()
			}
		}

		s.mu.Lock()
		req := lane.pending
		lane.pending = nil
		if req == nil {
			lane.running = false
			delete(s.lanes, sessionID)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.emit(s.post(*req))
	}
}

func (s *MaskSaver) post(req SaveRequest) SaveResult {
	start := time.Now()
	result := SaveResult{Request: req}

	fail := func(err error) SaveResult {
		result.Status = models.SaveFailed
		result.Err = err
		result.Duration = time.Since(start)
		s.logger.Error("MaskSaver", "mask save failed", err, map[string]interface{}{
			"filename": req.Filename,
			"session":  req.SessionID,
		})
		return result
	}

	body, err := json.Marshal(savePayload{MaskData: req.MaskData, Filename: req.Filename})
	if err != nil {
		return fail(fmt.Errorf("failed to encode save request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("failed to build save request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fail(fmt.Errorf("save request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("failed to read save response: %w", err))
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fail(fmt.Errorf("malformed save response (status %d): %w", resp.StatusCode, err))
	}
	result.Response = decoded

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("save endpoint returned %s", resp.Status))
	}

	result.Status = models.SaveSucceeded
	result.Duration = time.Since(start)
	s.logger.Info("MaskSaver", "mask saved", map[string]interface{}{
		"filename":    req.Filename,
		"session":     req.SessionID,
		"response":    decoded,
		"duration_ms": result.Duration.Milliseconds(),
	})
	return result
}

func (s *MaskSaver) emit(result SaveResult) {
	s.mu.Lock()
	handler := s.onResult
	s.mu.Unlock()

	if handler != nil {
		handler(result)
	}
}

// Shutdown cancels in-flight requests and waits for every lane to finish.
func (s *MaskSaver) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
