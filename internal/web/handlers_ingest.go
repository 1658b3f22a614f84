package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/UDIEditor/internal/core"
	"github.com/JonMunkholm/UDIEditor/internal/logging"
)

const (
	// multipartOverhead is allowed on top of the file size limit for
	// boundaries and part headers.
	multipartOverhead = 1 << 20

	// multipartMemory is held in memory before parts spill to disk.
	multipartMemory = 32 << 20
)

// readUpload extracts the "file" part of a multipart request.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (core.Source, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return core.Source{}, fmt.Errorf("read upload: %w", core.ErrFileTooLarge)
		}
		return core.Source{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return core.Source{}, fmt.Errorf("%w: no file provided", errBadRequest)
		}
		return core.Source{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer file.Close()

	// Reject on metadata before buffering the content.
	src := core.Source{Name: header.Filename, Size: header.Size}
	if err := core.CheckExtension(src.Name); err != nil {
		return core.Source{}, err
	}
	if src.Size > s.cfg.Ingest.MaxFileSize {
		return core.Source{}, fmt.Errorf("%s: %w", src.Name, core.ErrFileTooLarge)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return core.Source{}, fmt.Errorf("read upload %s: %w", src.Name, err)
	}
	src.Data = data
	return src, nil
}

// ingestAccepted is returned for asynchronous ingests.
type ingestAccepted struct {
	RequestID uint64 `json:"requestId"`
	Source    string `json:"source"`
	StatusURL string `json:"statusUrl"`
}

// batchResponse summarizes a synchronous ingest.
type batchResponse struct {
	SourceName   string            `json:"sourceName"`
	RecordCount  int               `json:"recordCount"`
	InvalidCount int               `json:"invalidCount"`
	WarningCount int               `json:"warningCount"`
	ParseErrors  []core.ParseError `json:"parseErrors,omitempty"`
	Summary      core.Summary      `json:"summary"`
}

// handleUpload starts an ingest of the uploaded file. With ?sync=true the
// file is parsed and applied before the response is written.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	src, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if sync, _ := strconv.ParseBool(r.URL.Query().Get("sync")); sync {
		batch, err := s.service.Ingest(r.Context(), src)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		logging.WithFields(r.Context(), "source", src.Name, "size", src.Size).
			Info("upload applied", "records", len(batch.Records), "invalid", batch.InvalidCount)
		writeJSON(w, http.StatusOK, batchResponse{
			SourceName:   batch.SourceName,
			RecordCount:  len(batch.Records),
			InvalidCount: batch.InvalidCount,
			WarningCount: batch.WarningCount,
			ParseErrors:  batch.ParseErrors,
			Summary:      core.Summarize(batch.Records),
		})
		return
	}

	s.startIngest(w, r, src)
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	s.startIngest(w, r, core.Source{Name: core.DemoSourceName, Demo: true})
}

func (s *Server) startIngest(w http.ResponseWriter, r *http.Request, src core.Source) {
	id, err := s.service.StartIngest(r.Context(), src)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "ingest_id", id, "source", src.Name).Info("ingest accepted", "size", src.Size)
	writeJSON(w, http.StatusAccepted, ingestAccepted{
		RequestID: id,
		Source:    src.Name,
		StatusURL: "/api/ingest/" + strconv.FormatUint(id, 10),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.IngestStatus())
}

func (s *Server) handleIngestStatusOf(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: ingest id must be a number", errBadRequest))
		return
	}
	st, err := s.service.IngestStatusOf(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCancelIngest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, applied{Applied: s.service.CancelIngest()})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Import(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// attachment marks the response as a download named name.
func attachment(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	attachment(w, core.ExportJSONFileName)
	if err := s.service.ExportJSON(w); err != nil {
		logging.FromContext(r.Context()).Error("export json failed", "error", err)
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	attachment(w, core.ExportXLSXFileName)
	if err := s.service.ExportXLSX(w); err != nil {
		logging.FromContext(r.Context()).Error("export xlsx failed", "error", err)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.service.Clear()
	writeJSON(w, http.StatusOK, applied{Applied: true})
}
