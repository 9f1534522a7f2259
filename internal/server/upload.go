package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/common"
	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/pipeline"
)

const imagesField = "images"

type uploadResponse struct {
	Message    string          `json:"message"`
	Data       []entity.Record `json:"data"`
	Files      []string        `json:"files"`
	MethodUsed string          `json:"method_used"`
	Errors     []string        `json:"errors"`
	RawOutputs []string        `json:"raw_outputs"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Arquivo muito grande (limite de %d MB)", s.opts.MaxUploadBytes>>20))
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			writeError(w, http.StatusBadRequest, "Nenhuma imagem enviada no campo 'images'.")
		default:
			s.logger.Warn("http.upload.parse_failed", "error", err)
			writeError(w, http.StatusBadRequest, "Requisição inválida: "+err.Error())
		}
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("http.upload.cleanup_failed", "error", err)
		}
	}()

	files, err := imageParts(r.MultipartForm)
	if err != nil {
		writeError(w, common.HTTPStatus(err), common.PublicMessage(err))
		return
	}

	method := constants.ParseMethod(r.FormValue("method"))
	uploads := make([]pipeline.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, pipeline.Upload{
			Filename: fh.Filename,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	batch := s.batch.Run(r.Context(), uploads, method)
	if batch.Exhausted() {
		err := common.NewAppError("BATCH_EXHAUSTED", "Não foi possível processar nenhuma imagem", common.ErrBatchExhausted)
		msg := err.Message
		if len(batch.Errors) > 0 {
			msg += ". Erros: " + strings.Join(batch.Errors, "; ")
		}
		writeJSON(w, common.HTTPStatus(err), errorResponse{
			Error:      msg,
			Errors:     batch.Errors,
			RawOutputs: batch.Diagnostics,
		})
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:    fmt.Sprintf("%d imagens processadas com sucesso", len(batch.Records)),
		Data:       batch.Records,
		Files:      batch.Files,
		MethodUsed: string(batch.Method),
		Errors:     batch.Errors,
		RawOutputs: batch.Diagnostics,
	})
}

// imageParts returns the file parts of the images field. A part sent without a
// filename is stored by the multipart reader as a plain value, which is how an
// empty browser file selection arrives.
func imageParts(form *multipart.Form) ([]*multipart.FileHeader, error) {
	files := form.File[imagesField]
	if len(files) == 0 {
		if _, ok := form.Value[imagesField]; ok {
			return nil, common.InvalidInput("Nenhuma imagem selecionada")
		}
		return nil, common.InvalidInput("Nenhuma imagem enviada no campo 'images'.")
	}
	for _, fh := range files {
		if strings.TrimSpace(fh.Filename) != "" {
			return files, nil
		}
	}
	return nil, common.InvalidInput("Nenhuma imagem selecionada")
}
