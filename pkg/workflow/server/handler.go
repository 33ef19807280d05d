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

// Package server exposes the workflow engine's public operations over
// HTTP/JSON using chi for routing, mirroring the request/response and
// problem+json conventions the rest of the service suite uses.
package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

// Handler adapts HTTP requests onto engine.Engine operations.
type Handler struct {
	engine   *engine.Engine
	validate *validator.Validate
	log      *logrus.Logger
}

// Option customizes a Handler at construction time.
type Option func(*Handler)

// WithLogger overrides the default logger (a logrus.New() instance, which
// writes to stderr).
func WithLogger(log *logrus.Logger) Option {
	return func(h *Handler) { h.log = log }
}

func NewHandler(eng *engine.Engine, opts ...Option) *Handler {
	h := &Handler{
		engine:   eng,
		validate: validator.New(),
		log:      logrus.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) decodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (h *Handler) HandleRegisterWorkflow(w http.ResponseWriter, r *http.Request) {
	var req registerWorkflowRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}

	creator, err := decodePrincipal(req.Creator)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", err.Error())
		return
	}

	phases := make([]engine.PhaseDefinition, 0, len(req.Phases))
	for _, dto := range req.Phases {
		phase, err := toPhaseDefinition(dto)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid-phase", err.Error())
			return
		}
		phases = append(phases, phase)
	}

	var triggers engine.PrincipalSet
	if len(req.AuthorizedTriggers) > 0 {
		triggers = engine.NewPrincipalSet()
		for _, s := range req.AuthorizedTriggers {
			p, err := decodePrincipal(s)
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "invalid-principal", err.Error())
				return
			}
			triggers.Add(p)
		}
	}

	workflowID, err := h.engine.RegisterWorkflow(r.Context(), creator, req.Name, phases, triggers, req.FeePaid)
	if err != nil {
		writeEngineError(w, "register_workflow", err)
		return
	}

	writeJSON(w, http.StatusCreated, registerWorkflowResponse{WorkflowID: string(workflowID)})
}

func (h *Handler) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := engine.WorkflowID(chi.URLParam(r, "workflowID"))

	var req executeWorkflowRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}

	initiator, err := decodePrincipal(req.Initiator)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", err.Error())
		return
	}
	payload, err := decodeBase64(req.Payload)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-payload", err.Error())
		return
	}

	executionID, err := h.engine.ExecuteWorkflow(r.Context(), initiator, workflowID, payload, req.FeePaid)
	if err != nil {
		writeEngineError(w, "execute_workflow", err)
		return
	}

	writeJSON(w, http.StatusCreated, executeWorkflowResponse{ExecutionID: string(executionID)})
}

func (h *Handler) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := engine.WorkflowID(chi.URLParam(r, "workflowID"))
	def, err := h.engine.GetWorkflow(workflowID)
	if err != nil {
		writeEngineError(w, "get_workflow", err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *Handler) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	executionID := engine.ExecutionID(chi.URLParam(r, "executionID"))
	exec, err := h.engine.GetExecution(executionID)
	if err != nil {
		writeEngineError(w, "get_execution", err)
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

func (h *Handler) phaseIndexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "phaseIndex")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-phase-index", "phase index must be an integer")
		return 0, false
	}
	return idx, true
}

func (h *Handler) HandleGetPhaseStatus(w http.ResponseWriter, r *http.Request) {
	executionID := engine.ExecutionID(chi.URLParam(r, "executionID"))
	phaseIndex, ok := h.phaseIndexParam(w, r)
	if !ok {
		return
	}
	status, err := h.engine.GetPhaseStatus(executionID, phaseIndex)
	if err != nil {
		writeEngineError(w, "get_phase_status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

func (h *Handler) HandleGetPhaseResult(w http.ResponseWriter, r *http.Request) {
	executionID := engine.ExecutionID(chi.URLParam(r, "executionID"))
	phaseIndex, ok := h.phaseIndexParam(w, r)
	if !ok {
		return
	}
	result, err := h.engine.GetPhaseResult(executionID, phaseIndex)
	if err != nil {
		writeEngineError(w, "get_phase_result", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": base64.StdEncoding.EncodeToString(result)})
}

func (h *Handler) HandleSubmitCoordinationResponse(w http.ResponseWriter, r *http.Request) {
	executionID := engine.ExecutionID(chi.URLParam(r, "executionID"))
	phaseIndex, ok := h.phaseIndexParam(w, r)
	if !ok {
		return
	}

	var req coordinationResponseRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}
	caller, err := decodePrincipal(req.Caller)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", err.Error())
		return
	}
	response, err := decodeBase64(req.Response)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-response", err.Error())
		return
	}

	if err := h.engine.SubmitCoordinationResponse(r.Context(), caller, executionID, phaseIndex, response); err != nil {
		writeEngineError(w, "submit_coordination_response", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) HandleSubmitMonitoringUpdate(w http.ResponseWriter, r *http.Request) {
	executionID := engine.ExecutionID(chi.URLParam(r, "executionID"))
	phaseIndex, ok := h.phaseIndexParam(w, r)
	if !ok {
		return
	}

	var req monitoringUpdateRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}
	caller, err := decodePrincipal(req.Caller)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", err.Error())
		return
	}
	data, err := decodeBase64(req.Data)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-data", err.Error())
		return
	}

	if err := h.engine.SubmitMonitoringUpdate(r.Context(), caller, executionID, phaseIndex, data); err != nil {
		writeEngineError(w, "submit_monitoring_update", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) HandleTriggerConditionalPhase(w http.ResponseWriter, r *http.Request) {
	executionID := engine.ExecutionID(chi.URLParam(r, "executionID"))
	phaseIndex, ok := h.phaseIndexParam(w, r)
	if !ok {
		return
	}

	var req triggerConditionalRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}
	caller, err := decodePrincipal(req.Caller)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", err.Error())
		return
	}
	triggerData, err := decodeBase64(req.TriggerData)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-trigger-data", err.Error())
		return
	}

	if err := h.engine.TriggerConditionalPhase(r.Context(), caller, executionID, phaseIndex, triggerData); err != nil {
		writeEngineError(w, "trigger_conditional_phase", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "triggered"})
}

func (h *Handler) HandleCheckPhaseTimeout(w http.ResponseWriter, r *http.Request) {
	executionID := engine.ExecutionID(chi.URLParam(r, "executionID"))
	phaseIndex, ok := h.phaseIndexParam(w, r)
	if !ok {
		return
	}
	if err := h.engine.CheckPhaseTimeout(r.Context(), executionID, phaseIndex); err != nil {
		writeEngineError(w, "check_phase_timeout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "timed_out"})
}

func (h *Handler) HandleAuthorizeWorkflowCreator(w http.ResponseWriter, r *http.Request) {
	var req authorizePrincipalRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}
	caller, err1 := decodePrincipal(req.Caller)
	principal, err2 := decodePrincipal(req.Principal)
	if err1 != nil || err2 != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", "caller and principal must be 40 hex characters")
		return
	}
	if err := h.engine.AuthorizeWorkflowCreator(caller, principal); err != nil {
		writeEngineError(w, "authorize_workflow_creator", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "authorized"})
}

func (h *Handler) HandleAuthorizeTriggerSource(w http.ResponseWriter, r *http.Request) {
	var req authorizePrincipalRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}
	caller, err1 := decodePrincipal(req.Caller)
	principal, err2 := decodePrincipal(req.Principal)
	if err1 != nil || err2 != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", "caller and principal must be 40 hex characters")
		return
	}
	if err := h.engine.AuthorizeTriggerSource(caller, principal); err != nil {
		writeEngineError(w, "authorize_trigger_source", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "authorized"})
}

func (h *Handler) HandleSetFees(w http.ResponseWriter, r *http.Request) {
	var req setFeesRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}
	caller, err := decodePrincipal(req.Caller)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", err.Error())
		return
	}
	if err := h.engine.SetFees(caller, engine.FeeSchedule{CreationFee: req.CreationFee, ExecutionFee: req.ExecutionFee}); err != nil {
		writeEngineError(w, "set_fees", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) HandleDeactivateWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := engine.WorkflowID(chi.URLParam(r, "workflowID"))

	var req deactivateWorkflowRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-request", err.Error())
		return
	}
	caller, err := decodePrincipal(req.Caller)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid-principal", err.Error())
		return
	}
	if err := h.engine.DeactivateWorkflow(caller, workflowID); err != nil {
		writeEngineError(w, "deactivate_workflow", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
