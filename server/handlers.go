package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/initializ/envpipe/compiler"
	"github.com/initializ/envpipe/config"
	"github.com/initializ/envpipe/plan"
	"github.com/initializ/envpipe/render"
	"github.com/initializ/envpipe/types"
	"github.com/initializ/envpipe/validate"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Message  string   `json:"message,omitempty"`
	Details  []string `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// CompileResponse is the body of a successful compile.
type CompileResponse struct {
	Plan     *plan.Pipeline `json:"plan"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ValidateResponse is the body of a validate call.
type ValidateResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.readDefinition(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	res := validate.ValidatePipelineConfig(cfg)
	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:    res.IsValid(),
		Errors:   res.Errors,
		Warnings: res.Warnings,
	})
}

// handleCompile validates and compiles a definition. ?format=yaml returns
// the plan as YAML instead of the JSON envelope.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.readDefinition(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	start := time.Now()
	res := validate.ValidatePipelineConfig(cfg)
	if !res.IsValid() {
		s.metrics.ObserveCompile(string(cfg.Variant), 0, time.Since(start), errors.New("invalid"))
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:    http.StatusText(http.StatusUnprocessableEntity),
			Message:  "pipeline definition is invalid",
			Details:  res.Errors,
			Warnings: res.Warnings,
		})
		return
	}

	p, err := compiler.Compile(cfg)
	s.metrics.ObserveCompile(string(cfg.Variant), len(cfg.Environments), time.Since(start), err)
	if err != nil {
		s.log.Warn("compile failed", map[string]any{"pipeline": cfg.Name, "error": err.Error()})
		respondError(w, http.StatusUnprocessableEntity, "compilation failed", errorList(err))
		return
	}
	s.log.Info("compiled", map[string]any{"pipeline": p.ID, "stages": len(p.Stages)})

	if r.URL.Query().Get("format") == string(render.FormatYAML) {
		data, err := render.YAML(p)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	respondJSON(w, http.StatusOK, CompileResponse{Plan: p, Warnings: res.Warnings})
}

// readDefinition decodes the request body. application/toml bodies are
// decoded as TOML; anything else as YAML, which also accepts JSON.
func (s *Server) readDefinition(w http.ResponseWriter, r *http.Request) (*types.PipelineConfig, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, err
	}
	ext := "yaml"
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mt == "application/toml" {
		ext = "toml"
	}
	return config.Parse(body, ext)
}

// errorList flattens errors.Join trees into one message per leaf.
func errorList(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, errorList(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, details []string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Details: details,
	})
}
