package server

import (
	"net/http"

	"github.com/rs/cors"
)

func SetupRoutes(operatorHandler *OperatorService, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /search", operatorHandler.SearchOperators)

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
}
