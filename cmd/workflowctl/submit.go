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
	"fmt"

	"github.com/spf13/cobra"
)

type phaseTargetFlags struct {
	ExecutionID string
	PhaseIndex  int
	Caller      string
}

func newSubmitCoordinationCmd() *cobra.Command {
	var f phaseTargetFlags
	var response string

	cmd := &cobra.Command{
		Use:   "submit-coordination-response",
		Short: "Submit a coordination response for a COORDINATION phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]interface{}{"caller": f.Caller, "response": response}
			path := phasePath(f.ExecutionID, f.PhaseIndex, "coordination-responses")
			return apiClient(flags.ServerURL).do("POST", path, req, nil)
		},
	}
	addPhaseTargetFlags(cmd, &f)
	cmd.Flags().StringVar(&response, "response", "", "base64-encoded response payload")

	return cmd
}

func newSubmitMonitoringCmd() *cobra.Command {
	var f phaseTargetFlags
	var data string

	cmd := &cobra.Command{
		Use:   "submit-monitoring-update",
		Short: "Submit a monitoring update for a CONTINUOUS phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]interface{}{"caller": f.Caller, "data": data}
			path := phasePath(f.ExecutionID, f.PhaseIndex, "monitoring-updates")
			return apiClient(flags.ServerURL).do("POST", path, req, nil)
		},
	}
	addPhaseTargetFlags(cmd, &f)
	cmd.Flags().StringVar(&data, "data", "", "base64-encoded monitoring payload")

	return cmd
}

func newTriggerCmd() *cobra.Command {
	var f phaseTargetFlags
	var triggerData string

	cmd := &cobra.Command{
		Use:   "trigger-conditional",
		Short: "Trigger a CONDITIONAL phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]interface{}{"caller": f.Caller, "trigger_data": triggerData}
			path := phasePath(f.ExecutionID, f.PhaseIndex, "trigger")
			return apiClient(flags.ServerURL).do("POST", path, req, nil)
		},
	}
	addPhaseTargetFlags(cmd, &f)
	cmd.Flags().StringVar(&triggerData, "trigger-data", "", "base64-encoded trigger payload")

	return cmd
}

func newTimeoutCheckCmd() *cobra.Command {
	var f phaseTargetFlags

	cmd := &cobra.Command{
		Use:   "check-timeout",
		Short: "Ask the timeout engine to evaluate a phase's deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := phasePath(f.ExecutionID, f.PhaseIndex, "timeout-check")
			return apiClient(flags.ServerURL).do("POST", path, nil, nil)
		},
	}
	cmd.Flags().StringVar(&f.ExecutionID, "execution-id", "", "execution ID")
	cmd.Flags().IntVar(&f.PhaseIndex, "phase-index", 0, "index of the phase to check")
	cmd.MarkFlagRequired("execution-id")

	return cmd
}

func addPhaseTargetFlags(cmd *cobra.Command, f *phaseTargetFlags) {
	cmd.Flags().StringVar(&f.ExecutionID, "execution-id", "", "execution ID")
	cmd.Flags().IntVar(&f.PhaseIndex, "phase-index", 0, "phase index within the workflow")
	cmd.Flags().StringVar(&f.Caller, "caller", "", "40-hex-char calling principal")
	cmd.MarkFlagRequired("execution-id")
	cmd.MarkFlagRequired("caller")
}

func phasePath(executionID string, phaseIndex int, action string) string {
	return fmt.Sprintf("/api/v1/executions/%s/phases/%d/%s", executionID, phaseIndex, action)
}
