package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teatak/fenci/config"
	"github.com/teatak/fenci/internal/logger"
	"github.com/teatak/fenci/internal/userstore"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestServer(t *testing.T) (*server, *userstore.Store) {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "..", "engine", "testdata", "config.toml"))
	require.NoError(t, err)

	store, err := userstore.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := newServer(cfg, store, logger.Discard())
	require.NoError(t, srv.reload())
	return srv, store
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", contentJSON)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSegmentEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	rec := do(t, h, http.MethodPost, "/segment", map[string]any{"text": "南京市长江大桥"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var resp segmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "precise", resp.Mode)
	require.Len(t, resp.Tokens, 2)
	assert.Equal(t, "长江大桥", resp.Tokens[1].Text)
	assert.Equal(t, 9, resp.Tokens[1].Start)
	assert.Equal(t, rec.Header().Get("X-Request-Id"), resp.RequestID)

	rec = do(t, h, http.MethodPost, "/segment?mode=search", map[string]any{"text": "南京市长江大桥"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Tokens, 5)

	rec = do(t, h, http.MethodPost, "/segment?mode=bogus", map[string]any{"text": "南京"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/segment", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSegmentEndpoint_Msgpack(t *testing.T) {
	srv, _ := newTestServer(t)

	body, err := msgpack.Marshal(&textRequest{Text: "我是程序员"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/segment", bytes.NewReader(body))
	req.Header.Set("Content-Type", contentMsgpack)
	req.Header.Set("Accept", contentMsgpack)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentMsgpack, rec.Header().Get("Content-Type"))
	var resp segmentResponse
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &resp))
	var words []string
	for _, tok := range resp.Tokens {
		words = append(words, tok.Text)
	}
	assert.Equal(t, []string{"我", "是", "程序员"}, words)
}

func TestTagAndKeywordsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	rec := do(t, h, http.MethodPost, "/tag", map[string]any{"text": "我来到北京"})
	require.Equal(t, http.StatusOK, rec.Code)
	var tags tagResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tags))
	require.Len(t, tags.Pairs, 3)
	assert.Equal(t, "ns", tags.Pairs[2].Tag)

	rec = do(t, h, http.MethodPost, "/keywords", map[string]any{"text": "我来到北京清华大学", "top_k": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	var kw keywordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kw))
	require.Len(t, kw.Keywords, 1)
	assert.Equal(t, "清华大学", kw.Keywords[0].Word)
}

func TestWordsEndpoint_PersistsAndReplays(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.routes()

	rec := do(t, h, http.MethodPost, "/words", map[string]any{"word": "五一", "freq": 1000, "tag": "t"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/words?word=云计算", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/words", map[string]any{"word": "五 一"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, ok, err := store.Get("五一")
	require.NoError(t, err)
	assert.True(t, ok)

	// a reload starts from the files again and replays the store
	require.NoError(t, srv.reload())

	rec = do(t, h, http.MethodGet, "/words?word=五一", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var word wordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &word))
	assert.True(t, word.Found)
	assert.Equal(t, 1000.0, word.Freq)
	assert.Equal(t, "t", word.Tag)

	rec = do(t, h, http.MethodGet, "/words?word=云计算", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &word))
	assert.False(t, word.Found)

	words, err := srv.engine().Segment("今天是五一", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"今天", "是", "五一"}, words)
}

func TestStatsAndReloadEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	rec := do(t, h, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, true, stats["hmm"])

	rec = do(t, h, http.MethodGet, "/reload", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	rec = do(t, h, http.MethodPost, "/reload", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWordsEndpoint_EditsSurviveConcurrentReload(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	const n = 40
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			rec := do(t, h, http.MethodPost, "/words", map[string]any{"word": fmt.Sprintf("新词%d", i), "freq": 10})
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n/4; i++ {
			assert.NoError(t, srv.reload())
		}
	}()
	wg.Wait()

	// no reload after the edits: the live engine must already hold them all
	eng := srv.engine()
	for i := 0; i < n; i++ {
		word := fmt.Sprintf("新词%d", i)
		_, ok, err := eng.Lookup(word)
		require.NoError(t, err)
		assert.True(t, ok, "lost %s", word)
	}
}

func TestRun_ClosesStoreOnLoadFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dict.Main = filepath.Join(t.TempDir(), "missing.txt")
	cfg.Server.UserStore = t.TempDir()

	err := run(cfg, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial load")

	// badger holds a directory lock until Close
	store, err := userstore.Open(cfg.Server.UserStore, nil)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
