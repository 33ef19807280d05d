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
	"github.com/spf13/cobra"
)

// newAdminCmd groups the administrative operations. All of them require
// the engine's admin principal except deactivate-workflow, which the
// workflow's creator may also perform.
func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations (authorization, fees, deactivation)",
	}

	cmd.AddCommand(
		newAuthorizeCreatorCmd(),
		newAuthorizeTriggerSourceCmd(),
		newSetFeesCmd(),
		newDeactivateWorkflowCmd(),
	)

	return cmd
}

func newAuthorizeCreatorCmd() *cobra.Command {
	var caller, principal string

	cmd := &cobra.Command{
		Use:   "authorize-creator",
		Short: "Authorize a principal to register workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]interface{}{"caller": caller, "principal": principal}
			return apiClient(flags.ServerURL).do("POST", "/api/v1/admin/authorize-creator", req, nil)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "40-hex-char admin principal")
	cmd.Flags().StringVar(&principal, "principal", "", "40-hex-char principal to authorize")
	cmd.MarkFlagRequired("caller")
	cmd.MarkFlagRequired("principal")
	return cmd
}

func newAuthorizeTriggerSourceCmd() *cobra.Command {
	var caller, principal string

	cmd := &cobra.Command{
		Use:   "authorize-trigger-source",
		Short: "Authorize a principal as a conditional-phase trigger source",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]interface{}{"caller": caller, "principal": principal}
			return apiClient(flags.ServerURL).do("POST", "/api/v1/admin/authorize-trigger-source", req, nil)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "40-hex-char admin principal")
	cmd.Flags().StringVar(&principal, "principal", "", "40-hex-char principal to authorize")
	cmd.MarkFlagRequired("caller")
	cmd.MarkFlagRequired("principal")
	return cmd
}

func newSetFeesCmd() *cobra.Command {
	var caller string
	var creationFee, executionFee uint64

	cmd := &cobra.Command{
		Use:   "set-fees",
		Short: "Set the workflow creation and execution fees",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]interface{}{
				"caller":        caller,
				"creation_fee":  creationFee,
				"execution_fee": executionFee,
			}
			return apiClient(flags.ServerURL).do("POST", "/api/v1/admin/fees", req, nil)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "40-hex-char admin principal")
	cmd.Flags().Uint64Var(&creationFee, "creation-fee", 0, "fee required to register a workflow")
	cmd.Flags().Uint64Var(&executionFee, "execution-fee", 0, "fee required to execute a workflow")
	cmd.MarkFlagRequired("caller")
	return cmd
}

func newDeactivateWorkflowCmd() *cobra.Command {
	var caller, workflowID string

	cmd := &cobra.Command{
		Use:   "deactivate-workflow",
		Short: "Deactivate a workflow so it can no longer be executed",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]interface{}{"caller": caller}
			return apiClient(flags.ServerURL).do("PATCH", "/api/v1/workflows/"+workflowID+"/deactivate", req, nil)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "40-hex-char calling principal")
	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "workflow to deactivate")
	cmd.MarkFlagRequired("caller")
	cmd.MarkFlagRequired("workflow-id")
	return cmd
}
