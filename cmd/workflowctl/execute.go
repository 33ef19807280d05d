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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type executeFlags struct {
	WorkflowID string
	Initiator  string
	Payload    string
	FeePaid    uint64
}

func newExecuteCmd() *cobra.Command {
	var f executeFlags

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Start an execution of a registered workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]interface{}{
				"initiator": f.Initiator,
				"payload":   f.Payload,
				"fee_paid":  f.FeePaid,
			}
			var resp struct {
				ExecutionID string `json:"execution_id"`
			}
			path := "/api/v1/workflows/" + f.WorkflowID + "/executions"
			if err := apiClient(flags.ServerURL).do("POST", path, req, &resp); err != nil {
				return err
			}
			fmt.Println(resp.ExecutionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.WorkflowID, "workflow-id", "", "workflow to execute")
	cmd.Flags().StringVar(&f.Initiator, "initiator", "", "40-hex-char initiator principal")
	cmd.Flags().StringVar(&f.Payload, "payload", "", "base64-encoded execution payload")
	cmd.Flags().Uint64Var(&f.FeePaid, "fee-paid", 0, "execution fee paid")
	cmd.MarkFlagRequired("workflow-id")
	cmd.MarkFlagRequired("initiator")

	return cmd
}

func newGetWorkflowCmd() *cobra.Command {
	var workflowID string

	cmd := &cobra.Command{
		Use:   "get-workflow",
		Short: "Fetch a workflow definition by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out interface{}
			if err := apiClient(flags.ServerURL).do("GET", "/api/v1/workflows/"+workflowID, nil, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "workflow ID")
	cmd.MarkFlagRequired("workflow-id")
	return cmd
}

func newGetExecutionCmd() *cobra.Command {
	var executionID string

	cmd := &cobra.Command{
		Use:   "get-execution",
		Short: "Fetch an execution's current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out interface{}
			if err := apiClient(flags.ServerURL).do("GET", "/api/v1/executions/"+executionID+"/", nil, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	cmd.Flags().StringVar(&executionID, "execution-id", "", "execution ID")
	cmd.MarkFlagRequired("execution-id")
	return cmd
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
