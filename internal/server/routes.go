package server

import "net/http"

func NewMux(svc *Service) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /handle-lambda", svc.HandleLambda)
	mux.HandleFunc("POST /compile", svc.HandleCompile)
	mux.HandleFunc("POST /visibility", svc.HandleVisibility)
	mux.HandleFunc("GET /state", svc.HandleState)
	mux.HandleFunc("POST /reset", svc.HandleReset)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return CORS(mux)
}
