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

type phaseFlag struct {
	Name               string `json:"name"`
	Type               string `json:"type"`
	TimeoutSeconds     int64  `json:"timeout_seconds"`
	Dependencies       []int  `json:"dependencies"`
	TriggerCondition   string `json:"trigger_condition,omitempty"`
	OperatorSetID      string `json:"operator_set_id,omitempty"`
	Metadata           string `json:"metadata,omitempty"`
	RequiredStake      uint64 `json:"required_stake"`
	ConsensusThreshold uint32 `json:"consensus_threshold,omitempty"`
}

type registerFlags struct {
	Creator     string
	Name        string
	PhasesFile  string
	FeePaid     uint64
	AuthTrigger []string
}

// newRegisterCmd registers a new workflow definition. The phase list is
// read from a JSON file since it doesn't fit comfortably on a command
// line: an array of phase objects matching the server's phase DTO.
func newRegisterCmd() *cobra.Command {
	var f registerFlags

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new workflow definition",
		Example: `  workflowctl register --creator <40-hex> --name my-workflow \
    --phases phases.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(f.PhasesFile)
			if err != nil {
				return fmt.Errorf("read phases file: %w", err)
			}
			var phases []phaseFlag
			if err := json.Unmarshal(raw, &phases); err != nil {
				return fmt.Errorf("parse phases file: %w", err)
			}

			req := map[string]interface{}{
				"creator":             f.Creator,
				"name":                f.Name,
				"phases":              phases,
				"authorized_triggers": f.AuthTrigger,
				"fee_paid":            f.FeePaid,
			}

			var resp struct {
				WorkflowID string `json:"workflow_id"`
			}
			if err := apiClient(flags.ServerURL).do("POST", "/api/v1/workflows", req, &resp); err != nil {
				return err
			}
			fmt.Println(resp.WorkflowID)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Creator, "creator", "", "40-hex-char creator principal")
	cmd.Flags().StringVar(&f.Name, "name", "", "workflow name")
	cmd.Flags().StringVar(&f.PhasesFile, "phases", "", "path to a JSON file describing the phase list")
	cmd.Flags().Uint64Var(&f.FeePaid, "fee-paid", 0, "creation fee paid")
	cmd.Flags().StringSliceVar(&f.AuthTrigger, "authorized-trigger", nil, "additional principal authorized to trigger conditional phases")
	cmd.MarkFlagRequired("creator")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("phases")

	return cmd
}
