package corral

// AssertOutcome is one evaluated assertion from a Response's [Asserts]
// section, or one of the implicit version/status/header asserts (spec
// §4.9). Err is nil on success; Predicate is the zero value when the
// failure happened during query evaluation itself (so there is no
// predicate outcome to report).
type AssertOutcome struct {
	Query      Query
	Predicate  Predicate
	Err        error
	SourceInfo SourceInfo
}

// ResponseResult is everything evaluating a Response block against a
// TransportResponse produces: the implicit and explicit assert outcomes,
// and the captures bound into the variable environment.
type ResponseResult struct {
	Asserts  []AssertOutcome
	Captures map[string]string
}

// EvalResponse checks resp against the expectations in want (spec §4.9).
// Cookie queries read straight from resp's own Set-Cookie headers, so no
// jar or request host/path is needed here.
func EvalResponse(want Response, resp TransportResponse, vars map[string]string) ResponseResult {
	qr := queryEvalResponse{
		Version: resp.Version,
		Status:  resp.Status,
		Headers: resp.Headers,
		Body:    resp.Body,
	}

	var out ResponseResult
	out.Captures = make(map[string]string)

	if want.Version != VersionAny && want.Version != resp.Version {
		out.Asserts = append(out.Asserts, AssertOutcome{
			Err:        NewAssertVersionError(StringValue(string(resp.Version)), want.SourceInfo),
			SourceInfo: want.SourceInfo,
		})
	}

	if want.Status != resp.Status {
		out.Asserts = append(out.Asserts, AssertOutcome{
			Err:        NewAssertStatusError(IntValue(int64(resp.Status)), want.SourceInfo),
			SourceInfo: want.SourceInfo,
		})
	}

	for _, h := range want.Headers {
		expected, err := h.Value.Eval(vars)
		if err != nil {
			out.Asserts = append(out.Asserts, AssertOutcome{Err: err, SourceInfo: h.SourceInfo})
			continue
		}
		actual, ok := headerLookup(resp.Headers, h.Key)
		if !ok {
			out.Asserts = append(out.Asserts, AssertOutcome{
				Err:        NewQueryHeaderNotFoundError(h.SourceInfo),
				SourceInfo: h.SourceInfo,
			})
			continue
		}
		if actual != expected {
			out.Asserts = append(out.Asserts, AssertOutcome{
				Err:        NewAssertHeaderValueError(StringValue(actual), h.SourceInfo),
				SourceInfo: h.SourceInfo,
			})
			continue
		}
		out.Asserts = append(out.Asserts, AssertOutcome{SourceInfo: h.SourceInfo})
	}

	// Captures apply before explicit asserts, per spec §5: an assertion
	// never observes a capture bound by its own entry.
	var captureErr error
	for _, sec := range SectionsOfKind(want.Sections, SectionCaptures) {
		for _, cap := range sec.Captures {
			val, err := cap.Query.Eval(qr)
			if err != nil {
				captureErr = err
				break
			}
			out.Captures[cap.Name] = val.String()
		}
	}
	if captureErr != nil {
		out.Asserts = append(out.Asserts, AssertOutcome{Err: captureErr})
		return out
	}

	for _, sec := range SectionsOfKind(want.Sections, SectionAsserts) {
		for _, a := range sec.Asserts {
			val, err := a.Query.Eval(qr)
			if err != nil {
				out.Asserts = append(out.Asserts, AssertOutcome{
					Query: a.Query, SourceInfo: a.SourceInfo, Err: err,
				})
				continue
			}
			perr := a.Predicate.Eval(vars, val)
			out.Asserts = append(out.Asserts, AssertOutcome{
				Query: a.Query, Predicate: a.Predicate, SourceInfo: a.SourceInfo, Err: perr,
			})
		}
	}

	return out
}
