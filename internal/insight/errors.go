// Copyright 2025 InsightAI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package insight

import (
	"errors"
	"fmt"
)

// TransportError indicates the LLM call failed outright (network/HTTP).
// Callers surface it as a user-visible apology turn, never a crash.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("insight completion transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedReplyError indicates the structured completion could not be
// decoded or is missing required fields. A failed inner data decode is
// NOT malformed; that case degrades to an empty data set instead.
type MalformedReplyError struct {
	Reason string
	Err    error
}

func (e *MalformedReplyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed insight reply: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed insight reply: %s", e.Reason)
}

func (e *MalformedReplyError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformedReply reports whether err is a MalformedReplyError.
func IsMalformedReply(err error) bool {
	var me *MalformedReplyError
	return errors.As(err, &me)
}
