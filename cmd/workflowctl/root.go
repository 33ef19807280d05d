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

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	sharedhttp "github.com/jordigilh/workflowengine/pkg/shared/http"
)

// globalFlags holds flags shared by every subcommand.
type globalFlags struct {
	ServerURL string
}

var flags globalFlags

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflowctl",
		Short: "Command-line client for the workflow orchestration service",
		Long: `workflowctl talks to a running workflow-service instance over its
REST API: register workflows, start executions, submit coordination
responses and monitoring updates, trigger conditional phases, poke the
timeout engine, and perform admin operations.`,
	}

	cmd.PersistentFlags().StringVar(&flags.ServerURL, "server", "http://localhost:8080", "workflow-service base URL")

	cmd.AddCommand(
		newRegisterCmd(),
		newExecuteCmd(),
		newGetWorkflowCmd(),
		newGetExecutionCmd(),
		newSubmitCoordinationCmd(),
		newSubmitMonitoringCmd(),
		newTriggerCmd(),
		newTimeoutCheckCmd(),
		newAdminCmd(),
	)

	return cmd
}

// apiClient builds a client for the workflow service at serverURL. Its do
// method issues a JSON request and decodes the response body into out (if
// non-nil), returning an error describing any status of 300 or above.
func apiClient(serverURL string) *client {
	return &client{base: serverURL, http: sharedhttp.NewClientWithTimeout(10 * time.Second)}
}

type client struct {
	base string
	http *http.Client
}

func (c *client) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost || method == http.MethodPatch {
		// Every mutating request carries a freshly generated key, so a
		// re-run of the command sends a new one. The workflow service does
		// not read this header.
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
