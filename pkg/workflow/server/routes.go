/*
Copyright 2025 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes assembles the chi router exposing every engine operation.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", h.HandleHealth)

	r.Route("/api/v1/workflows", func(r chi.Router) {
		r.Post("/", h.HandleRegisterWorkflow)
		r.Get("/{workflowID}", h.HandleGetWorkflow)
		r.Patch("/{workflowID}/deactivate", h.HandleDeactivateWorkflow)
		r.Post("/{workflowID}/executions", h.HandleExecuteWorkflow)
	})

	r.Route("/api/v1/executions/{executionID}", func(r chi.Router) {
		r.Get("/", h.HandleGetExecution)
		r.Route("/phases/{phaseIndex}", func(r chi.Router) {
			r.Get("/status", h.HandleGetPhaseStatus)
			r.Get("/result", h.HandleGetPhaseResult)
			r.Post("/coordination-responses", h.HandleSubmitCoordinationResponse)
			r.Post("/monitoring-updates", h.HandleSubmitMonitoringUpdate)
			r.Post("/trigger", h.HandleTriggerConditionalPhase)
			r.Post("/timeout-check", h.HandleCheckPhaseTimeout)
		})
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Post("/authorize-creator", h.HandleAuthorizeWorkflowCreator)
		r.Post("/authorize-trigger-source", h.HandleAuthorizeTriggerSource)
		r.Post("/fees", h.HandleSetFees)
	})

	return r
}
