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

// Package mailbox adapts the engine's external task mailbox collaborator
// (pkg/workflow/engine.TaskMailbox) onto a NATS request/reply subject: the
// IMMEDIATE executor's create_task call becomes a NATS request, and the
// downstream dispatcher's response becomes the task handle.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	wferrors "github.com/jordigilh/workflowengine/pkg/shared/errors"
	wflogging "github.com/jordigilh/workflowengine/pkg/shared/logging"
	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

// Subject is the NATS subject the task mailbox listens for create-task
// requests on.
const Subject = "workflow.mailbox.create_task"

// createTaskRequest is the wire shape published on Subject.
type createTaskRequest struct {
	RefundCollector string `json:"refund_collector"`
	AVSFee          uint64 `json:"avs_fee"`
	SelfIdentity    string `json:"self_identity"`
	OperatorSetID   string `json:"operator_set_id"`
	Payload         []byte `json:"payload"`
}

// createTaskResponse is the wire shape returned by the downstream
// dispatcher.
type createTaskResponse struct {
	TaskHandle []byte `json:"task_handle"`
	Error      string `json:"error,omitempty"`
}

// NATSMailbox implements engine.TaskMailbox over a NATS connection.
type NATSMailbox struct {
	conn    *nats.Conn
	timeout time.Duration
	log     *logrus.Logger

	mu     sync.Mutex
	closed bool
}

// Config configures a NATSMailbox.
type Config struct {
	URL            string
	RequestTimeout time.Duration
	Logger         *logrus.Logger
}

// New dials the NATS server at cfg.URL and returns a ready NATSMailbox.
func New(cfg Config) (*NATSMailbox, error) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("workflow-engine-mailbox"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, wferrors.NetworkError("connect", cfg.URL, err)
	}

	return &NATSMailbox{conn: conn, timeout: timeout, log: log}, nil
}

// CreateTask implements engine.TaskMailbox.
func (m *NATSMailbox) CreateTask(ctx context.Context, req engine.TaskRequest) (engine.TaskHandle, error) {
	body, err := json.Marshal(createTaskRequest{
		RefundCollector: req.RefundCollector.String(),
		AVSFee:          req.AVSFee,
		SelfIdentity:    req.SelfIdentity.String(),
		OperatorSetID:   req.OperatorSetID,
		Payload:         req.Payload,
	})
	if err != nil {
		return nil, wferrors.FailedToWithDetails("create_task", "mailbox", "marshal_request", err)
	}

	msg, err := m.conn.RequestWithContext(ctx, Subject, body)
	if err != nil {
		m.log.WithFields(wflogging.NewFields().Component("mailbox").Operation("create_task").Error(err).ToLogrus()).
			Error("task mailbox request failed")
		return nil, wferrors.NetworkError("create_task", Subject, err)
	}

	var resp createTaskResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, wferrors.FailedToWithDetails("create_task", "mailbox", "unmarshal_response", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("task mailbox rejected task: %s", resp.Error)
	}

	return engine.TaskHandle(resp.TaskHandle), nil
}

// Close drains and closes the underlying NATS connection.
func (m *NATSMailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.conn.Close()
}
