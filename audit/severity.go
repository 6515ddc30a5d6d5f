package audit

// severityTable implements the Action x Result severity classification
// matrix. Actions not named in the matrix fall under "other".
var severityTable = map[Action]map[Result]Severity{
	ActionAuthentication: {
		ResultSuccess: SeverityInfo,
		ResultFailure: SeverityError,
		ResultDenied:  SeverityWarning,
	},
	ActionSecurityEvent: {
		ResultSuccess: SeverityWarning,
		ResultFailure: SeverityCritical,
		ResultDenied:  SeverityWarning,
	},
}

var otherSeverity = map[Result]Severity{
	ResultSuccess: SeverityDebug,
	ResultFailure: SeverityWarning,
	ResultDenied:  SeverityWarning,
}

// ClassifySeverity assigns a Severity to (action, result) per the
// protocol's classification matrix.
func ClassifySeverity(action Action, result Result) Severity {
	if row, ok := severityTable[action]; ok {
		if sev, ok := row[result]; ok {
			return sev
		}
	}
	if sev, ok := otherSeverity[result]; ok {
		return sev
	}
	return SeverityWarning
}

// RequiresSIEM reports whether e must additionally be pushed to the SIEM
// sink: any Failure result, or any SecurityEvent action regardless of
// result.
func RequiresSIEM(e Event) bool {
	return e.Result == ResultFailure || e.Action == ActionSecurityEvent
}
