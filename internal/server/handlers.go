package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tos-network/tolambda/internal/forge"
	"github.com/tos-network/tolambda/tol/sema"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type lambdaRequest struct {
	Function   string `json:"function"`
	LambdaName string `json:"lambda_name"`
	Reset      bool   `json:"reset,omitempty"`
}

type lambdaResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Dirname     string `json:"dirname"`
	StateString string `json:"state_string"`
}

type compileRequest struct {
	Dirname string `json:"dirname"`
}

type visibilityRequest struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
}

type statusResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	StateString string `json:"state_string,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) HandleLambda(w http.ResponseWriter, r *http.Request) {
	var req lambdaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, lambdaResponse{Message: err.Error()})
		return
	}
	start := time.Now()
	res, err := s.Submit(req.Function, req.LambdaName, req.Reset)
	resp := lambdaResponse{Dirname: res.Dirname, StateString: res.StateString}
	if err != nil {
		s.logger.Warn("lambda rejected",
			zap.String("lambda", req.LambdaName),
			zap.String("dirname", res.Dirname),
			zap.Error(err))
		resp.Message = err.Error()
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	s.logger.Info("lambda staged",
		zap.String("lambda", req.LambdaName),
		zap.String("dirname", res.Dirname),
		zap.Duration("duration", time.Since(start)))
	resp.Success = true
	resp.Message = "Successfully processed and wrote lambda '" + req.LambdaName + "'"
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) HandleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	start := time.Now()
	out, err := s.Compile(r.Context(), strings.TrimSpace(req.Dirname))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUnknownDir) {
			status = http.StatusNotFound
		}
		s.logger.Error("compile failed", zap.String("dirname", req.Dirname), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Info("compiled",
		zap.String("dirname", req.Dirname),
		zap.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "name is required"})
		return
	}
	v, err := sema.ParseVisibility(req.Visibility)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: err.Error()})
		return
	}
	states := s.SetVisibility(name, v)
	writeJSON(w, http.StatusOK, statusResponse{Success: true, StateString: states})
}

func (s *Service) HandleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Service) HandleReset(w http.ResponseWriter, _ *http.Request) {
	s.Reset()
	s.logger.Info("state reset")
	writeJSON(w, http.StatusOK, statusResponse{Success: true})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var _ Compiler = (*forge.Compiler)(nil)
