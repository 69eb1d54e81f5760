package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/alnah/go-notetaker/internal/apierr"
	"github.com/alnah/go-notetaker/internal/audio"
	"github.com/alnah/go-notetaker/internal/ffmpeg"
	"github.com/alnah/go-notetaker/internal/lang"
	"github.com/alnah/go-notetaker/internal/notes"
	"github.com/alnah/go-notetaker/internal/pipeline"
	"github.com/alnah/go-notetaker/internal/tempfile"
	"github.com/alnah/go-notetaker/internal/template"
	"github.com/alnah/go-notetaker/internal/transcribe"
)

const (
	audioField      = "audio"
	maxFormMemory   = 32 << 20
	maxNotesBodyLen = 4 << 20
)

// allowedExts are the upload extensions accepted by POST /process-audio.
var allowedExts = map[string]bool{
	".m4a": true, ".wav": true, ".mp3": true, ".aac": true, ".caf": true, ".ogg": true,
	".flac": true, ".mp4": true, ".mpeg": true, ".mpga": true, ".oga": true, ".webm": true,
}

// Processor runs the transcription pipeline. Implemented by *pipeline.Pipeline.
type Processor interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

var _ Processor = (*pipeline.Pipeline)(nil)

// ProcessAudioResponse is the body of a successful POST /process-audio.
type ProcessAudioResponse struct {
	Transcript     string `json:"transcript"`
	Notes          string `json:"notes"`
	Segments       int    `json:"segments"`
	FailedSegments int    `json:"failed_segments,omitempty"`
}

// NotesRequest is the body of POST /notes.
type NotesRequest struct {
	Transcript string `json:"transcript"`
	Template   string `json:"template,omitempty"`
	Language   string `json:"language,omitempty"`
}

// NotesResponse is the body of a successful POST /notes.
type NotesResponse struct {
	Markdown string `json:"markdown"`
}

// processAudio handles POST /process-audio.
// Form fields: audio (file, required), language, notes ("false" to skip),
// template.
func (s *Server) processAudio(w http.ResponseWriter, r *http.Request) {
	tooLarge := "upload exceeds " + strconv.FormatInt(s.maxUpload>>20, 10) + " MB"
	if r.ContentLength > s.maxUpload {
		WriteError(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		if isTooLarge(err) {
			WriteError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(audioField)
	if err != nil {
		WriteError(w, http.StatusBadRequest, `no audio file uploaded under field "audio"`)
		return
	}
	defer func() { _ = file.Close() }()

	if !allowedExts[strings.ToLower(filepath.Ext(header.Filename))] {
		WriteError(w, http.StatusBadRequest, "unsupported file type")
		return
	}

	req := pipeline.Request{Notes: s.notesEnabled && r.FormValue("notes") != "false"}
	if req.Language, err = lang.Parse(r.FormValue("language")); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Template, err = s.templateOr(r.FormValue("template")); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Input = tempfile.Input{Reader: file, Name: header.Filename}

	res, err := s.proc.Run(r.Context(), req)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, ProcessAudioResponse{
		Transcript:     res.Transcript,
		Notes:          res.Notes,
		Segments:       res.Segments,
		FailedSegments: res.FailedSegments,
	})
}

// notes handles POST /notes.
func (s *Server) notes(w http.ResponseWriter, r *http.Request) {
	if s.summarizer == nil {
		WriteError(w, http.StatusServiceUnavailable, "notes generation not configured")
		return
	}

	var body NotesRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotesBodyLen))
	if err := dec.Decode(&body); err != nil {
		if isTooLarge(err) {
			WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Transcript) == "" {
		WriteError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	var opts notes.Options
	var err error
	if opts.Language, err = lang.Parse(body.Language); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Template, err = s.templateOr(body.Template); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	md, err := s.summarizer.Summarize(r.Context(), body.Transcript, opts)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NotesResponse{Markdown: md})
}

// isTooLarge reports whether err came from an http.MaxBytesReader.
// The multipart reader does not always wrap it.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) templateOr(name string) (template.Name, error) {
	if name == "" {
		return s.template, nil
	}
	return template.ParseName(name)
}

func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	log := hlog.FromRequest(r)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Warn().Err(err).Int("status", status).Msg("request rejected")
	}

	switch {
	case errors.Is(err, ffmpeg.ErrNotFound):
		WriteErrorDetail(w, status, "audio tools unavailable", ffmpeg.InstallHint)
	case status == http.StatusInternalServerError:
		WriteError(w, status, "failed to process audio")
	default:
		WriteError(w, status, err.Error())
	}
}

// StatusFor maps a pipeline or notes error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ffmpeg.ErrNotFound),
		errors.Is(err, transcribe.ErrAPIKeyMissing),
		errors.Is(err, pipeline.ErrNotesUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, tempfile.ErrNoInput),
		errors.Is(err, audio.ErrFileNotFound),
		errors.Is(err, audio.ErrProbeFailed),
		errors.Is(err, audio.ErrSegmentationFailed),
		errors.Is(err, notes.ErrEmptyTranscript),
		errors.Is(err, notes.ErrTranscriptTooLong),
		errors.Is(err, apierr.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apierr.ErrRateLimit),
		errors.Is(err, apierr.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
