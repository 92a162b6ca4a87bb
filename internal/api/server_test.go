package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/inkhorn/inkhorn/internal/logger"
	"github.com/inkhorn/inkhorn/pkg/slm"
)

func newTestEcho(opts ...ServerOption) *echo.Echo {
	server := NewServer(NewModelStore(), logger.Default(), opts...)
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const trainBody = `{
	"documents": [
		{"name": "dragons.txt", "text": "The dragon flew over the mountain. The dragon roared loudly at the knight."},
		{"name": "knights.txt", "text": "The knight fought the dragon bravely. The villagers cheered for the knight."}
	],
	"order": 2,
	"min_word_count": 1,
	"min_sentence_chars": 1,
	"min_alpha_ratio": 0
}`

func TestTrainThenGenerate(t *testing.T) {
	t.Parallel()

	e := newTestEcho()

	trainRec := doJSON(t, e, http.MethodPost, "/v1/train", trainBody)
	if trainRec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", trainRec.Code, trainRec.Body.String())
	}
	var trained TrainResponse
	if err := json.Unmarshal(trainRec.Body.Bytes(), &trained); err != nil {
		t.Fatalf("decode train response: %v", err)
	}
	if trained.EmptyCorpus {
		t.Fatalf("corpus unexpectedly empty: %+v", trained.Stats)
	}
	if trained.Stats.DocumentsProcessed != 2 {
		t.Fatalf("documents processed: got %d want 2", trained.Stats.DocumentsProcessed)
	}
	if trained.Stats.RunID == "" {
		t.Fatalf("missing run id")
	}

	genRec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"seed":"The dragon","temperature":0}`)
	if genRec.Code != http.StatusOK {
		t.Fatalf("generate status: got %d body=%s", genRec.Code, genRec.Body.String())
	}
	var gen TextResponse
	if err := json.Unmarshal(genRec.Body.Bytes(), &gen); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}
	if gen.ID == "" || gen.Text == "" {
		t.Fatalf("incomplete generate response: %+v", gen)
	}
	if !strings.HasPrefix(gen.Text, "The dragon") {
		t.Fatalf("generated text does not extend the seed: %q", gen.Text)
	}
}

func TestGenerateBeforeTrainingFallsBack(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var gen TextResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &gen); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}
	if gen.Text == "" {
		t.Fatalf("untrained model produced no text")
	}
}

func TestCompleteRequiresText(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/complete", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("complete status: got %d want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_request_error") {
		t.Fatalf("missing error envelope: %s", rec.Body.String())
	}
}

func TestTrainRejectsEmptyDocuments(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/train", `{"documents":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("train status: got %d want 400", rec.Code)
	}
}

func TestTrainRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/train",
		`{"documents":[{"name":"a","text":"Some sentence here."}],"order":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("train status: got %d want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestGenerateRejectsNegativeTemperature(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"temperature":-1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("generate status: got %d want 400", rec.Code)
	}
}

func TestSuggestAfterTraining(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	if rec := doJSON(t, e, http.MethodPost, "/v1/train", trainBody); rec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", rec.Code, rec.Body.String())
	}

	rec := doJSON(t, e, http.MethodPost, "/v1/suggest", `{"context":"the dragon","n":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp SuggestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode suggest response: %v", err)
	}
	if len(resp.Suggestions) == 0 {
		t.Fatalf("expected suggestions after training")
	}
	for _, s := range resp.Suggestions {
		if s.Probability <= 0 || s.Probability > 1 {
			t.Fatalf("probability out of range: %+v", s)
		}
	}
}

func TestSuggestUntrainedReturnsEmptyList(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/suggest", `{"context":"anything"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"suggestions":[]`) {
		t.Fatalf("expected empty suggestions list: %s", rec.Body.String())
	}
}

func TestStyleAndModelEndpoints(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	if rec := doJSON(t, e, http.MethodPost, "/v1/train", trainBody); rec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", rec.Code, rec.Body.String())
	}

	styleRec := doJSON(t, e, http.MethodGet, "/v1/style?top=3", "")
	if styleRec.Code != http.StatusOK {
		t.Fatalf("style status: got %d body=%s", styleRec.Code, styleRec.Body.String())
	}
	if !strings.Contains(styleRec.Body.String(), `"trained":true`) {
		t.Fatalf("style should report a trained model: %s", styleRec.Body.String())
	}

	modelRec := doJSON(t, e, http.MethodGet, "/v1/model", "")
	if modelRec.Code != http.StatusOK {
		t.Fatalf("model status: got %d", modelRec.Code)
	}
	var model ModelResponse
	if err := json.Unmarshal(modelRec.Body.Bytes(), &model); err != nil {
		t.Fatalf("decode model response: %v", err)
	}
	if !model.Trained || model.VocabularySize == 0 {
		t.Fatalf("unexpected model response: %+v", model)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status: got %d", rec.Code)
	}
}

func TestTrainPersistsModel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.slm")
	e := newTestEcho(WithPersistPath(path))
	if rec := doJSON(t, e, http.MethodPost, "/v1/train", trainBody); rec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", rec.Code, rec.Body.String())
	}

	loaded, err := slm.Load(path)
	if err != nil {
		t.Fatalf("load persisted model: %v", err)
	}
	if loaded.Empty() {
		t.Fatalf("persisted model is empty")
	}
}
