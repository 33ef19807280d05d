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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Workflow HTTP Server Suite")
}

const adminHex = "ffffffffffffffffffffffffffffffffffffffff"
const creatorHex = "0101010101010101010101010101010101010101"

func newTestServer() *httptest.Server {
	admin, err := engine.ParsePrincipal(adminHex)
	if err != nil {
		panic(err)
	}

	eng := engine.New(engine.Config{Admin: admin, Events: engine.NullSink, Now: time.Now})
	handler := NewHandler(eng)
	return httptest.NewServer(handler.Routes())
}

var _ = Describe("Workflow HTTP Server", func() {
	var server *httptest.Server

	BeforeEach(func() {
		server = newTestServer()
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("GET /health", func() {
		It("should respond with status ok", func() {
			resp, err := http.Get(server.URL + "/health")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body map[string]interface{}
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("status", "ok"))
		})
	})

	Describe("POST /api/v1/workflows", func() {
		It("should reject a creator that is not an authorized creator", func() {
			reqBody := registerWorkflowRequest{
				Creator: creatorHex,
				Name:    "unauthorized-workflow",
				Phases: []phaseDefinitionDTO{
					{Name: "p0", Type: "IMMEDIATE", TimeoutSeconds: 60},
				},
			}
			body, _ := json.Marshal(reqBody)

			resp, err := http.Post(server.URL+"/api/v1/workflows", "application/json", bytes.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))

			var prob problem
			Expect(json.NewDecoder(resp.Body).Decode(&prob)).To(Succeed())
			Expect(prob.Type).To(Equal("unauthorized"))
		})

		It("should reject a request missing required fields", func() {
			resp, err := http.Post(server.URL+"/api/v1/workflows", "application/json", bytes.NewReader([]byte(`{}`)))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("end-to-end immediate workflow", func() {
		It("should register and execute a single-phase workflow", func() {
			authzBody, _ := json.Marshal(authorizePrincipalRequest{Caller: adminHex, Principal: creatorHex})
			resp, err := http.Post(server.URL+"/api/v1/admin/authorize-creator", "application/json", bytes.NewReader(authzBody))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			regBody, _ := json.Marshal(registerWorkflowRequest{
				Creator: creatorHex,
				Name:    "e2e-workflow",
				Phases: []phaseDefinitionDTO{
					{Name: "p0", Type: "IMMEDIATE", TimeoutSeconds: 60},
				},
			})
			resp, err = http.Post(server.URL+"/api/v1/workflows", "application/json", bytes.NewReader(regBody))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var reg registerWorkflowResponse
			Expect(json.NewDecoder(resp.Body).Decode(&reg)).To(Succeed())
			Expect(reg.WorkflowID).NotTo(BeEmpty())

			execBody, _ := json.Marshal(executeWorkflowRequest{Initiator: creatorHex})
			resp, err = http.Post(server.URL+"/api/v1/workflows/"+reg.WorkflowID+"/executions", "application/json", bytes.NewReader(execBody))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var exec executeWorkflowResponse
			Expect(json.NewDecoder(resp.Body).Decode(&exec)).To(Succeed())
			Expect(exec.ExecutionID).NotTo(BeEmpty())

			resp, err = http.Get(server.URL + "/api/v1/executions/" + exec.ExecutionID + "/")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var execView engine.WorkflowExecution
			Expect(json.NewDecoder(resp.Body).Decode(&execView)).To(Succeed())
			Expect(execView.IsComplete).To(BeTrue())
			Expect(execView.Successful).To(BeTrue())
		})
	})
})
