// Package corraltest holds small testify-based assertion helpers shared by
// the core package's table-driven tests.
package corraltest

import (
	"fmt"

	"github.com/dekarrin/corral"
	"github.com/stretchr/testify/assert"
)

// AssertRunSucceeded asserts that every entry in result completed without
// error and without any failed assertion.
func AssertRunSucceeded(a *assert.Assertions, result corral.RunResult) bool {
	var failed bool
	for i := range result.Entries {
		if !AssertEntrySucceeded(a, result.Entries, i) {
			failed = true
		}
	}

	return !failed
}

// AssertEntrySucceeded asserts that entries[idx] has no hard error and no
// failed assert.
func AssertEntrySucceeded(a *assert.Assertions, entries []corral.EntryResult, idx int) bool {
	entry := entries[idx]

	if !a.NoErrorf(entry.Err, "entry[%d] failed to run", idx) {
		return false
	}

	failed := false
	for j := range entry.Asserts {
		if !AssertOutcomeOK(a, entry.Asserts, j) {
			failed = true
		}
	}

	return !failed
}

// AssertOutcomeOK asserts that outcomes[idx] recorded no error.
func AssertOutcomeOK(a *assert.Assertions, outcomes []corral.AssertOutcome, idx int) bool {
	outcome := outcomes[idx]
	return a.NoErrorf(outcome.Err, "assert[%d] (query at %s) failed", idx, outcome.SourceInfo.Start)
}

// AssertEntryFailedWithAssert asserts that entries[idx] failed specifically
// because of a failed expectation (exit class 3), not a runner error (exit
// class 2), per spec §7's assert/non-assert distinction.
func AssertEntryFailedWithAssert(a *assert.Assertions, entries []corral.EntryResult, idx int) bool {
	entry := entries[idx]

	if entry.Err != nil {
		return a.Truef(corral.IsAssertFailure(entry.Err), "entry[%d] error %v is not an assert failure", idx, entry.Err)
	}

	for _, ao := range entry.Asserts {
		if ao.Err != nil {
			return a.Truef(corral.IsAssertFailure(ao.Err), "entry[%d] assert error %v is not an assert failure", idx, ao.Err)
		}
	}

	return a.Fail(fmt.Sprintf("entry[%d] did not fail at all", idx))
}
