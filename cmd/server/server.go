package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/teatak/fenci/config"
	"github.com/teatak/fenci/dictionary"
	"github.com/teatak/fenci/engine"
	"github.com/teatak/fenci/internal/userstore"
	"github.com/teatak/fenci/keyword"
	"github.com/teatak/fenci/posseg"
	"github.com/teatak/fenci/segmenter"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentJSON    = "application/json"
	contentMsgpack = "application/msgpack"
)

// server holds the engine with RWMutex for hot reloading.
type server struct {
	cfg   *config.Config
	store *userstore.Store
	log   *log.Logger

	mu  sync.RWMutex
	eng *engine.Engine
}

func newServer(cfg *config.Config, store *userstore.Store, logger *log.Logger) *server {
	return &server{cfg: cfg, store: store, log: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/segment", s.handle(s.handleSegment))
	mux.HandleFunc("/tag", s.handle(s.handleTag))
	mux.HandleFunc("/keywords", s.handle(s.handleKeywords))
	mux.HandleFunc("/words", s.handle(s.handleWords))
	mux.HandleFunc("/stats", s.handle(s.handleStats))
	mux.HandleFunc("/reload", s.handle(s.handleReload))
	return mux
}

// reload builds a fresh engine from disk and replays the user store over it.
func (s *server) reload() error {
	s.log.Info("Reloading engine...")
	eng, err := engine.Open(s.cfg, engine.WithLogger(s.log))
	if err != nil {
		return err
	}

	// Word edits hold the read lock from persist to apply, so the replay and
	// the swap see either all of an edit or none of it.
	s.mu.Lock()
	defer s.mu.Unlock()
	replayed := 0
	err = s.store.Each(func(rec userstore.Record) error {
		replayed++
		if rec.Deleted {
			return eng.DeleteUserWord(rec.Word)
		}
		return eng.InsertUserWord(rec.Word, rec.Freq, rec.Tag)
	})
	if err != nil {
		return fmt.Errorf("replay user store: %w", err)
	}

	s.eng = eng
	s.log.Info("Engine reloaded", "user_edits", replayed, "hmm", eng.HasHMM())
	return nil
}

func (s *server) engine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eng
}

// Request/Response types
type textRequest struct {
	Text string `json:"text" msgpack:"text"`
	HMM  *bool  `json:"hmm,omitempty" msgpack:"hmm,omitempty"`
	TopK int    `json:"top_k,omitempty" msgpack:"top_k,omitempty"`
}

type wordRequest struct {
	Word string  `json:"word" msgpack:"word"`
	Freq float64 `json:"freq,omitempty" msgpack:"freq,omitempty"`
	Tag  string  `json:"tag,omitempty" msgpack:"tag,omitempty"`
}

type segmentResponse struct {
	RequestID string            `json:"request_id" msgpack:"request_id"`
	Mode      string            `json:"mode" msgpack:"mode"`
	Tokens    []segmenter.Token `json:"tokens" msgpack:"tokens"`
}

type tagResponse struct {
	RequestID string        `json:"request_id" msgpack:"request_id"`
	Pairs     []posseg.Pair `json:"pairs" msgpack:"pairs"`
}

type keywordsResponse struct {
	RequestID string                 `json:"request_id" msgpack:"request_id"`
	Keywords  []keyword.WeightedWord `json:"keywords" msgpack:"keywords"`
}

type wordResponse struct {
	RequestID string  `json:"request_id" msgpack:"request_id"`
	Word      string  `json:"word" msgpack:"word"`
	Found     bool    `json:"found" msgpack:"found"`
	Freq      float64 `json:"freq,omitempty" msgpack:"freq,omitempty"`
	Tag       string  `json:"tag,omitempty" msgpack:"tag,omitempty"`
}

type errorResponse struct {
	RequestID string `json:"request_id" msgpack:"request_id"`
	Error     string `json:"error" msgpack:"error"`
}

// httpError carries a status code to the response writer.
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

type handlerFunc func(r *http.Request, id string) (any, error)

// handle assigns a request id, logs the request and encodes the result.
func (s *server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		resp, err := fn(r, id)
		if err != nil {
			status := http.StatusInternalServerError
			var he *httpError
			if errors.As(err, &he) {
				status = he.status
			}
			s.log.Warn("Request failed", "id", id, "path", r.URL.Path, "status", status, "err", err)
			s.write(w, r, status, errorResponse{RequestID: id, Error: err.Error()})
			return
		}
		s.log.Debug("Request", "id", id, "method", r.Method, "path", r.URL.Path)
		s.write(w, r, http.StatusOK, resp)
	}
}

func (s *server) wantsMsgpack(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, contentMsgpack):
		return true
	case strings.Contains(accept, contentJSON):
		return false
	}
	return s.cfg.Server.Encoding == "msgpack"
}

func (s *server) write(w http.ResponseWriter, r *http.Request, status int, v any) {
	if s.wantsMsgpack(r) {
		data, err := msgpack.Marshal(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentMsgpack)
		w.WriteHeader(status)
		w.Write(data)
		return
	}
	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return badRequest("empty body")
	}
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), contentMsgpack) {
		err = msgpack.NewDecoder(r.Body).Decode(v)
	} else {
		err = json.NewDecoder(r.Body).Decode(v)
	}
	if err != nil {
		return badRequest("invalid body: %v", err)
	}
	return nil
}

func requirePost(r *http.Request) error {
	if r.Method != http.MethodPost {
		return &httpError{status: http.StatusMethodNotAllowed, err: errors.New("method not allowed")}
	}
	return nil
}

func (s *server) useHMM(req textRequest) bool {
	if req.HMM != nil {
		return *req.HMM
	}
	return s.cfg.Segment.HMM
}

func (s *server) handleSegment(r *http.Request, id string) (any, error) {
	if err := requirePost(r); err != nil {
		return nil, err
	}
	var req textRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	// Resolve segmentation mode
	modeName := r.URL.Query().Get("mode")
	var mode segmenter.Mode
	switch modeName {
	case "", "precise":
		modeName = "precise"
		mode = segmenter.ModePrecise
	case "all":
		mode = segmenter.ModeAll
	case "search":
		mode = segmenter.ModeSearch
	default:
		return nil, badRequest("unknown mode %q", modeName)
	}

	tokens, err := s.engine().Tokenize(req.Text, mode, s.useHMM(req))
	if err != nil {
		return nil, err
	}
	return segmentResponse{RequestID: id, Mode: modeName, Tokens: tokens}, nil
}

func (s *server) handleTag(r *http.Request, id string) (any, error) {
	if err := requirePost(r); err != nil {
		return nil, err
	}
	var req textRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	pairs, err := s.engine().Tag(req.Text)
	if err != nil {
		return nil, err
	}
	return tagResponse{RequestID: id, Pairs: pairs}, nil
}

func (s *server) handleKeywords(r *http.Request, id string) (any, error) {
	if err := requirePost(r); err != nil {
		return nil, err
	}
	var req textRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	topK := req.TopK
	if topK == 0 {
		topK = 5
	}
	if limit := s.cfg.Server.MaxTopK; limit > 0 && topK > limit {
		topK = limit
	}
	words, err := s.engine().ExtractKeywordsWithWeight(req.Text, topK)
	if err != nil {
		return nil, err
	}
	return keywordsResponse{RequestID: id, Keywords: words}, nil
}

// handleWords looks up (GET), inserts (POST) or deletes (DELETE) user words.
// Edits are persisted before they are applied.
func (s *server) handleWords(r *http.Request, id string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eng := s.eng
	switch r.Method {
	case http.MethodGet:
		word := r.URL.Query().Get("word")
		if word == "" {
			return nil, badRequest("word param required")
		}
		entry, ok, err := eng.Lookup(word)
		if err != nil {
			return nil, err
		}
		return wordResponse{RequestID: id, Word: word, Found: ok, Freq: entry.Freq, Tag: entry.Tag}, nil

	case http.MethodPost:
		var req wordRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		if req.Word == "" || strings.ContainsFunc(req.Word, unicode.IsSpace) {
			return nil, badRequest("%v: %q", dictionary.ErrInvalidWord, req.Word)
		}
		if err := s.store.Put(req.Word, req.Freq, req.Tag); err != nil {
			return nil, err
		}
		if err := eng.InsertUserWord(req.Word, req.Freq, req.Tag); err != nil {
			if errors.Is(err, dictionary.ErrInvalidWord) {
				return nil, badRequest("%v", err)
			}
			return nil, err
		}
		entry, _, _ := eng.Lookup(req.Word)
		s.log.Info("Inserted user word", "id", id, "word", req.Word, "freq", entry.Freq, "tag", entry.Tag)
		return wordResponse{RequestID: id, Word: req.Word, Found: true, Freq: entry.Freq, Tag: entry.Tag}, nil

	case http.MethodDelete:
		word := r.URL.Query().Get("word")
		if word == "" {
			return nil, badRequest("word param required")
		}
		if err := s.store.Delete(word); err != nil {
			return nil, err
		}
		if err := eng.DeleteUserWord(word); err != nil {
			return nil, err
		}
		s.log.Info("Deleted user word", "id", id, "word", word)
		entry, ok, _ := eng.Lookup(word)
		return wordResponse{RequestID: id, Word: word, Found: ok, Freq: entry.Freq, Tag: entry.Tag}, nil
	}
	return nil, &httpError{status: http.StatusMethodNotAllowed, err: errors.New("method not allowed")}
}

func (s *server) handleStats(r *http.Request, id string) (any, error) {
	return s.engine().Stats()
}

func (s *server) handleReload(r *http.Request, id string) (any, error) {
	if err := requirePost(r); err != nil {
		return nil, err
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s.engine().Stats()
}
