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

package engine

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestScheduler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dependency Scheduler Suite")
}

var _ = Describe("Dependency Scheduler", func() {
	var (
		ctx     context.Context
		creator Principal
		admin   Principal
	)

	BeforeEach(func() {
		ctx = context.Background()
		creator = testPrincipal(0x40)
		admin = testPrincipal(0xFE)
	})

	Describe("dependency ordering (P1)", func() {
		It("only dispatches a phase once every declared dependency is COMPLETED", func() {
			eng := New(Config{Admin: admin})
			Expect(eng.AuthorizeWorkflowCreator(admin, creator)).To(Succeed())

			wfID, err := eng.RegisterWorkflow(ctx, creator, "p1", []PhaseDefinition{
				{Name: "p0", Type: PhaseCoordination, Timeout: time.Minute, OperatorSetID: "ops", ConsensusThreshold: 2000},
				{Name: "p1", Type: PhaseImmediate, Timeout: time.Minute, Dependencies: []int{0}},
			}, nil, 0)
			Expect(err).NotTo(HaveOccurred())

			execID, err := eng.ExecuteWorkflow(ctx, creator, wfID, nil, 0)
			Expect(err).NotTo(HaveOccurred())

			status, err := eng.GetPhaseStatus(execID, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(StatusPending), "p1 must not dispatch while its dependency is still ACTIVE")

			Expect(eng.SubmitCoordinationResponse(ctx, testPrincipal(0x01), execID, 0, nil)).To(Succeed())

			status, err = eng.GetPhaseStatus(execID, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(StatusCompleted), "p1 dispatches and completes once p0 is COMPLETED")
		})
	})

	Describe("determinism (P9)", func() {
		It("produces byte-identical event sequences for identical submission sequences", func() {
			build := func() []EventType {
				sink := &RecordingSink{}
				eng := New(Config{Admin: admin, Events: sink})
				Expect(eng.AuthorizeWorkflowCreator(admin, creator)).To(Succeed())

				wfID, err := eng.RegisterWorkflow(ctx, creator, "p9", []PhaseDefinition{
					{Name: "p0", Type: PhaseImmediate, Timeout: time.Minute},
					{Name: "p1", Type: PhaseImmediate, Timeout: time.Minute},
					{Name: "p2", Type: PhaseAggregation, Timeout: time.Minute, Dependencies: []int{0, 1}},
				}, nil, 0)
				Expect(err).NotTo(HaveOccurred())

				_, err = eng.ExecuteWorkflow(ctx, creator, wfID, []byte("fixed"), 0)
				Expect(err).NotTo(HaveOccurred())

				types := make([]EventType, len(sink.Events))
				for i, e := range sink.Events {
					types[i] = e.Type
				}
				return types
			}

			first := build()
			second := build()
			Expect(second).To(Equal(first))
			Expect(first).To(Equal([]EventType{
				EventCreatorAuthorized,
				EventWorkflowRegistered,
				EventWorkflowExecutionStarted,
				EventPhaseStarted,
				EventPhaseCompleted,
				EventPhaseStarted,
				EventPhaseCompleted,
				EventPhaseStarted,
				EventPhaseCompleted,
				EventWorkflowCompleted,
			}))
		})

		It("dispatches and completes every independent PENDING phase within one ExecuteWorkflow call", func() {
			eng := New(Config{Admin: admin})
			Expect(eng.AuthorizeWorkflowCreator(admin, creator)).To(Succeed())

			// Two independent IMMEDIATE phases with no shared dependency
			// both reach COMPLETED before ExecuteWorkflow returns.
			wfID, err := eng.RegisterWorkflow(ctx, creator, "parallel", []PhaseDefinition{
				{Name: "p0", Type: PhaseImmediate, Timeout: time.Minute},
				{Name: "p1", Type: PhaseImmediate, Timeout: time.Minute},
			}, nil, 0)
			Expect(err).NotTo(HaveOccurred())

			execID, err := eng.ExecuteWorkflow(ctx, creator, wfID, nil, 0)
			Expect(err).NotTo(HaveOccurred())

			s0, err := eng.GetPhaseStatus(execID, 0)
			Expect(err).NotTo(HaveOccurred())
			s1, err := eng.GetPhaseStatus(execID, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(s0).To(Equal(StatusCompleted))
			Expect(s1).To(Equal(StatusCompleted))
		})
	})

	Describe("terminal coherence (P7)", func() {
		It("marks the workflow complete and unsuccessful once any phase fails or times out", func() {
			base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
			clock := base
			eng := New(Config{Admin: admin, Now: func() time.Time { return clock }})
			Expect(eng.AuthorizeWorkflowCreator(admin, creator)).To(Succeed())

			wfID, err := eng.RegisterWorkflow(ctx, creator, "fails", []PhaseDefinition{
				{Name: "p0", Type: PhaseConditional, Timeout: 30 * time.Second, TriggerCondition: EncodeNoneCondition()},
				{Name: "p1", Type: PhaseImmediate, Timeout: time.Minute, Dependencies: []int{0}},
			}, nil, 0)
			Expect(err).NotTo(HaveOccurred())

			execID, err := eng.ExecuteWorkflow(ctx, creator, wfID, nil, 0)
			Expect(err).NotTo(HaveOccurred())

			clock = base.Add(31 * time.Second)
			Expect(eng.CheckPhaseTimeout(ctx, execID, 0)).To(Succeed())

			exec, err := eng.GetExecution(execID)
			Expect(err).NotTo(HaveOccurred())
			Expect(exec.IsComplete).To(BeTrue())
			Expect(exec.Successful).To(BeFalse())
			for i, s := range exec.PhaseStatuses {
				Expect(s.IsTerminal()).To(BeTrue(), "phase %d must be terminal", i)
			}
		})
	})
})
