package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/ingest"
)

// decodeRecords requires a "records" key; a null value is an empty list.
func decodeRecords(body io.Reader) ([]map[string]any, error) {
	var req map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, err
	}
	raw, ok := req["records"]
	if !ok {
		return nil, errors.New("records key missing")
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []map[string]any{}
	}
	return records, nil
}

func (s *Server) handleGenerateExcel(w http.ResponseWriter, r *http.Request) {
	records, err := decodeRecords(http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes))
	if err != nil {
		s.logger.Debug("http.excel.bad_request", "error", err)
		writeError(w, http.StatusBadRequest, "Dados não fornecidos")
		return
	}

	data, err := s.exporter.WriteXLSX(r.Context(), records, constants.FileKey)
	if err != nil {
		s.logger.Error("http.excel.failed", "records", len(records), "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Erro na geração do Excel: %v", err))
		return
	}

	name := fmt.Sprintf("fichas_resultado_%s.xlsx", s.now().Format(ingest.StampLayout))
	if _, err := s.store.SaveResult(name, data); err != nil {
		s.logger.Error("http.excel.save_failed", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Erro na geração do Excel: %v", err))
		return
	}

	w.Header().Set("Content-Type", constants.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("http.excel.write_failed", "file", name, "error", err)
	}
}
