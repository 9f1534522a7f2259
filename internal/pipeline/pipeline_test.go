package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/common"
	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/ingest"
	"github.com/joseph-ayodele/fichas/internal/llm"
	"github.com/joseph-ayodele/fichas/internal/ocr"
)

var quiet = slog.New(slog.DiscardHandler)

type fakeVision struct {
	calls  int
	result func(path string) entity.AnalysisResult
}

func (f *fakeVision) ExtractImage(_ context.Context, req llm.ImageRequest) entity.AnalysisResult {
	f.calls++
	return f.result(req.Path)
}

type fakeOCR struct {
	calls  int
	result func(path string) entity.AnalysisResult
}

func (f *fakeOCR) Run(_ context.Context, path string) entity.AnalysisResult {
	f.calls++
	return f.result(path)
}

func fieldsWith(k, v string) entity.Fields {
	f := entity.EmptyFields()
	f[k] = v
	return f
}

func visionReturns(fields entity.Fields, diag string) *fakeVision {
	return &fakeVision{result: func(string) entity.AnalysisResult {
		return entity.AnalysisResult{Fields: fields, Diagnostic: diag, Method: constants.MethodChatGPT}
	}}
}

func ocrReturns(fields entity.Fields, diag string) *fakeOCR {
	return &fakeOCR{result: func(string) entity.AnalysisResult {
		return entity.AnalysisResult{Fields: fields, Diagnostic: diag, Method: constants.MethodOCR}
	}}
}

func TestAnalyzeVisionSuccessSkipsOCR(t *testing.T) {
	v := visionReturns(fieldsWith(constants.FieldCliente, "João"), `{"Cliente":"João"}`)
	o := ocrReturns(entity.EmptyFields(), "")
	p := NewProcessor(quiet, v, o)

	out := p.Analyze(context.Background(), "/tmp/a.png", constants.MethodChatGPT)

	assert.Equal(t, 1, v.calls)
	assert.Equal(t, 0, o.calls)
	assert.Equal(t, constants.ImageAccepted, out.State)
	assert.Equal(t, constants.MethodChatGPT, out.Final.Method)
	assert.False(t, out.FellBack())
}

func TestAnalyzeFallsBackToOCRAndKeepsBothDiagnostics(t *testing.T) {
	v := visionReturns(entity.EmptyFields(), "resposta sem json")
	o := ocrReturns(fieldsWith(constants.FieldPlaca, "ABC1D23"), "Placa: ABC1D23")
	p := NewProcessor(quiet, v, o)

	out := p.Analyze(context.Background(), "/tmp/a.png", constants.MethodChatGPT)

	assert.Equal(t, 1, v.calls)
	assert.Equal(t, 1, o.calls)
	assert.True(t, out.FellBack())
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, "resposta sem json", out.Attempts[0].Diagnostic)
	assert.Equal(t, "Placa: ABC1D23", out.Attempts[1].Diagnostic)
	assert.Equal(t, constants.MethodOCR, out.Final.Method)
	assert.Equal(t, constants.ImageAccepted, out.State)
}

func TestAnalyzeFallbackResultIsFinalEvenWhenEmpty(t *testing.T) {
	v := visionReturns(entity.EmptyFields(), "")
	o := ocrReturns(entity.EmptyFields(), "")
	out := NewProcessor(quiet, v, o).Analyze(context.Background(), "/tmp/a.png", constants.MethodChatGPT)

	assert.Equal(t, 1, o.calls)
	assert.Equal(t, constants.ImageRejected, out.State)
}

func TestAnalyzeOCRMethodNeverCallsVision(t *testing.T) {
	v := visionReturns(fieldsWith(constants.FieldCliente, "x"), "")
	o := ocrReturns(fieldsWith(constants.FieldMarca, "Fiat"), "Marca: Fiat")
	out := NewProcessor(quiet, v, o).Analyze(context.Background(), "/tmp/a.png", constants.MethodOCR)

	assert.Equal(t, 0, v.calls)
	assert.Equal(t, 1, o.calls)
	assert.Equal(t, "Fiat", out.Final.Fields[constants.FieldMarca])
}

func TestAnalyzeWithoutVisionUsesOCR(t *testing.T) {
	o := ocrReturns(fieldsWith(constants.FieldMarca, "Fiat"), "Marca: Fiat")
	out := NewProcessor(quiet, nil, o).Analyze(context.Background(), "/tmp/a.png", constants.MethodChatGPT)

	assert.Equal(t, 1, o.calls)
	require.Len(t, out.Attempts, 2)
	assert.Contains(t, out.Attempts[0].Diagnostic, "OPENAI_API_KEY")
	assert.Equal(t, constants.ImageAccepted, out.State)
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(context.Context, string) (ocr.ExtractionResult, error) {
	return ocr.ExtractionResult{Text: f.text}, f.err
}

func TestOCRStageParsesText(t *testing.T) {
	s := NewOCRStage(fakeExtractor{text: "Cliente: João\nTroca de eixo"}, nil, quiet)
	res := s.Run(context.Background(), "a.png")

	assert.NoError(t, res.Err)
	assert.Equal(t, "João", res.Fields[constants.FieldCliente])
	assert.Equal(t, "Troca de eixo; ", res.Fields[constants.FieldServico])
	assert.Equal(t, "Cliente: João\nTroca de eixo", res.Diagnostic)
}

func TestOCRStageParsesEngineTextVerbatim(t *testing.T) {
	raw := "Cliente:  João   da  Silva\n\tTroca de eixo\t\n"
	s := NewOCRStage(fakeExtractor{text: raw}, nil, quiet)
	res := s.Run(context.Background(), "a.png")

	assert.Equal(t, "João   da  Silva", res.Fields[constants.FieldCliente])
	assert.Equal(t, "Troca de eixo; ", res.Fields[constants.FieldServico])
	assert.Equal(t, raw, res.Diagnostic)
}

func TestOCRStageConvertsErrors(t *testing.T) {
	s := NewOCRStage(fakeExtractor{err: errors.New("tesseract: not found")}, nil, quiet)
	res := s.Run(context.Background(), "a.png")

	assert.True(t, res.Empty())
	assert.True(t, errors.Is(res.Err, common.ErrExtraction))
	assert.Contains(t, res.Diagnostic, "tesseract: not found")
}

func upload(name, body string) Upload {
	return Upload{Filename: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}}
}

func newBatch(t *testing.T, v llm.VisionExtractor, o TextStage) (*BatchProcessor, *ingest.Store) {
	t.Helper()
	dir := t.TempDir()
	store := ingest.NewStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "results"), quiet)
	require.NoError(t, store.EnsureDirs())
	return NewBatchProcessor(quiet, store, NewProcessor(quiet, v, o)), store
}

func TestBatchContinuesPastFailures(t *testing.T) {
	o := &fakeOCR{result: func(path string) entity.AnalysisResult {
		if strings.Contains(path, "vazia") {
			return entity.AnalysisResult{Fields: entity.EmptyFields(), Diagnostic: "", Method: constants.MethodOCR}
		}
		return entity.AnalysisResult{Fields: fieldsWith(constants.FieldCliente, "Ana"), Diagnostic: "Cliente: Ana", Method: constants.MethodOCR}
	}}
	bp, store := newBatch(t, nil, o)

	batch := bp.Run(context.Background(), []Upload{
		upload("test.txt", "x"),
		upload("vazia.png", "x"),
		upload("boa.jpg", "x"),
	}, constants.MethodOCR)

	require.Len(t, batch.Records, 1)
	assert.Equal(t, "Ana", batch.Records[0].Fields[constants.FieldCliente])
	assert.Equal(t, batch.Files, []string{batch.Records[0].File})
	assert.True(t, strings.HasSuffix(batch.Records[0].File, "_boa.jpg"))

	require.Len(t, batch.Errors, 2)
	assert.Equal(t, "Arquivo inválido ou não permitido: test.txt", batch.Errors[0])
	assert.Regexp(t, `^Nenhum dado significativo extraído de \d{8}_\d{6}_[0-9a-f]{8}_vazia\.png$`, batch.Errors[1])
	assert.Len(t, batch.Diagnostics, 2)
	assert.NotEmpty(t, batch.ID)

	assert.FileExists(t, filepath.Join(store.UploadDir, batch.Records[0].File))
}

func TestBatchExhausted(t *testing.T) {
	v := visionReturns(entity.EmptyFields(), "sem dados")
	o := ocrReturns(entity.EmptyFields(), "")
	bp, _ := newBatch(t, v, o)

	batch := bp.Run(common.WithRequestID(context.Background(), "req-1"), []Upload{upload("a.png", "x")}, constants.MethodChatGPT)

	assert.True(t, batch.Exhausted())
	assert.Equal(t, "req-1", batch.ID)
	require.Len(t, batch.Diagnostics, 2)
	assert.Contains(t, batch.Diagnostics[0], "[chatgpt]")
	assert.Contains(t, batch.Diagnostics[1], "[ocr]")
}

func TestBatchOpenFailure(t *testing.T) {
	bp, _ := newBatch(t, nil, ocrReturns(entity.EmptyFields(), ""))
	batch := bp.Run(context.Background(), []Upload{{Filename: "a.png", Open: func() (io.ReadCloser, error) {
		return nil, errors.New("boom")
	}}}, constants.MethodOCR)

	require.Len(t, batch.Errors, 1)
	assert.Equal(t, "Erro ao ler a.png", batch.Errors[0])
}
