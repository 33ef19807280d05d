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
	"encoding/json"
	"net/http"

	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

// problem is a minimal RFC 7807-shaped error body: a short machine-
// readable "type" slug and a human-readable "detail".
type problem struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func writeProblem(w http.ResponseWriter, status int, typ, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Type: typ, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeEngineError maps an engine.EngineError's Code to an HTTP status
// and renders it as a problem body.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	typ := "internal-error"

	switch engine.CodeOf(err) {
	case engine.CodeNotFound:
		status, typ = http.StatusNotFound, "not-found"
	case engine.CodeAlreadyExists:
		status, typ = http.StatusConflict, "already-exists"
	case engine.CodeInvalidArgument, engine.CodeInvalidTriggerCondition:
		status, typ = http.StatusBadRequest, "invalid-argument"
	case engine.CodeUnauthorized:
		status, typ = http.StatusForbidden, "unauthorized"
	case engine.CodeFailedPrecondition, engine.CodeAlreadyResponded, engine.CodeWorkflowInactive:
		status, typ = http.StatusConflict, "failed-precondition"
	case engine.CodeDeadlineExceeded:
		status, typ = http.StatusGatewayTimeout, "deadline-exceeded"
	}

	writeProblem(w, status, typ, op+": "+err.Error())
}
