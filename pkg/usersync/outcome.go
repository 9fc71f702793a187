// Copyright 2025 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package usersync

// Outcome classifies what the per-record pipeline did with one directory
// record. Expected business outcomes are values here rather than error types
// so the runner can aggregate them without type switching on errors.
type Outcome int

const (
	// OutcomeCreated means a new local employee was created for the record.
	OutcomeCreated Outcome = iota

	// OutcomeUpdated means a matching local employee had tracked fields
	// differing from the record and was updated.
	OutcomeUpdated

	// OutcomeSkipped means the record was not applied, either because it is
	// unsyncable or because the matching local employee is already current.
	OutcomeSkipped

	// OutcomeErrored means the store rejected the create or update. The pass
	// continues with the next record.
	OutcomeErrored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeErrored:
		return "error"
	default:
		return "unknown"
	}
}

// SkipReason records why a record was skipped.
type SkipReason int

const (
	// SkipNone is the zero value for non-skip results.
	SkipNone SkipReason = iota

	// SkipNoEmail means the record has no primary email.
	SkipNoEmail

	// SkipNoID means the record has no directory ID.
	SkipNoID

	// SkipNoChange means a matching employee exists and no tracked field
	// differs.
	SkipNoChange
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipNoEmail:
		return "no_email"
	case SkipNoID:
		return "no_id"
	case SkipNoChange:
		return "no_change"
	default:
		return "unknown"
	}
}

// Result is the outcome of running one record through the pipeline.
type Result struct {
	Outcome Outcome

	// Reason is set when Outcome is OutcomeSkipped.
	Reason SkipReason

	// Err is set when Outcome is OutcomeErrored.
	Err error

	// Employee is the created or updated employee, when one was written.
	Employee *Employee
}
