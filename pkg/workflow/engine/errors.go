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

import "fmt"

// Code classifies an EngineError so callers can switch on failure kind
// without string matching.
type Code int

const (
	CodeUnknown Code = iota
	CodeNotFound
	CodeAlreadyExists
	CodeInvalidArgument
	CodeUnauthorized
	CodeFailedPrecondition
	CodeAlreadyResponded
	CodeDeadlineExceeded
	CodeInvalidTriggerCondition
	CodeWorkflowInactive
)

func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeAlreadyExists:
		return "ALREADY_EXISTS"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeFailedPrecondition:
		return "FAILED_PRECONDITION"
	case CodeAlreadyResponded:
		return "ALREADY_RESPONDED"
	case CodeDeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case CodeInvalidTriggerCondition:
		return "INVALID_TRIGGER_CONDITION"
	case CodeWorkflowInactive:
		return "WORKFLOW_INACTIVE"
	default:
		return "UNKNOWN"
	}
}

// EngineError mirrors pkg/shared/errors.OperationError's message shape but
// carries a Code so submission handlers and the HTTP transport can map
// failures onto stable outcomes instead of parsing strings.
type EngineError struct {
	Code      Code
	Operation string
	Resource  string
	Cause     error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("failed to %s, code: %s", e.Operation, e.Code)
	if e.Resource != "" {
		msg += fmt.Sprintf(", resource: %s", e.Resource)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(", cause: %s", e.Cause)
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

func newError(code Code, operation, resource string, cause error) *EngineError {
	return &EngineError{Code: code, Operation: operation, Resource: resource, Cause: cause}
}

func errNotFound(operation, resource string) error {
	return newError(CodeNotFound, operation, resource, nil)
}

func errAlreadyExists(operation, resource string) error {
	return newError(CodeAlreadyExists, operation, resource, nil)
}

func errInvalidArgument(operation, resource string, cause error) error {
	return newError(CodeInvalidArgument, operation, resource, cause)
}

func errUnauthorized(operation, resource string) error {
	return newError(CodeUnauthorized, operation, resource, nil)
}

func errFailedPrecondition(operation, resource string, cause error) error {
	return newError(CodeFailedPrecondition, operation, resource, cause)
}

func errAlreadyResponded(operation, resource string) error {
	return newError(CodeAlreadyResponded, operation, resource, nil)
}

func errInvalidTriggerCondition(operation, resource string) error {
	return newError(CodeInvalidTriggerCondition, operation, resource, nil)
}

func errWorkflowInactive(operation, resource string) error {
	return newError(CodeWorkflowInactive, operation, resource, nil)
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *EngineError, returning CodeUnknown otherwise.
func CodeOf(err error) Code {
	var ee *EngineError
	for err != nil {
		if e, ok := err.(*EngineError); ok {
			ee = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if ee == nil {
		return CodeUnknown
	}
	return ee.Code
}
