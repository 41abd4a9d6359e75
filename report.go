package corral

import (
	"fmt"
	"io"

	"github.com/dekarrin/rezi/v2"
)

// ReportAssert is the flattened, REZI-serializable form of one
// AssertOutcome (spec §4.9), for `corral run --report-file`.
type ReportAssert struct {
	QueryText string
	Err       string // empty on success
	Assert    bool   // true if Err is empty or represents a failed expectation
}

// ReportEntry is the flattened, REZI-serializable form of one EntryResult.
type ReportEntry struct {
	Method  string
	URL     string
	Status  int
	Err     string // empty unless the entry could not be completed at all
	Asserts []ReportAssert
}

// Report is what `corral run --report-file` persists: one ReportEntry per
// entry actually attempted, in order.
type Report struct {
	Entries []ReportEntry
}

// NewReport flattens a RunResult into its REZI-serializable Report form.
func NewReport(rr RunResult) Report {
	var rep Report
	for _, er := range rr.Entries {
		re := ReportEntry{
			Method: string(er.Request.Method),
			URL:    er.Request.URL,
		}
		if er.Response != nil {
			re.Status = er.Response.Status
		}
		if er.Err != nil {
			re.Err = er.Err.Error()
		}
		for _, a := range er.Asserts {
			ra := ReportAssert{
				QueryText: a.SourceInfo.Start.String(),
				Assert:    a.Err == nil || IsAssertFailure(a.Err),
			}
			if a.Err != nil {
				ra.Err = a.Err.Error()
			}
			re.Asserts = append(re.Asserts, ra)
		}
		rep.Entries = append(rep.Entries, re)
	}
	return rep
}

// WriteReport REZI-encodes rep to w, the way the teacher's
// RESTClient.WriteState persists cookie/variable state.
func WriteReport(w io.Writer, rep Report) error {
	rzw, err := rezi.NewWriter(w, nil)
	if err != nil {
		return fmt.Errorf("create REZI writer: %w", err)
	}
	if err := rzw.Enc(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return rzw.Close()
}

// ReadReport REZI-decodes a Report previously written by WriteReport.
func ReadReport(r io.Reader) (Report, error) {
	rzr, err := rezi.NewReader(r, nil)
	if err != nil {
		return Report{}, fmt.Errorf("create REZI reader: %w", err)
	}
	var rep Report
	if err := rzr.Dec(&rep); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}
