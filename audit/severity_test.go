package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySeverityMatchesSpecMatrix(t *testing.T) {
	cases := []struct {
		action Action
		result Result
		want   Severity
	}{
		{ActionAuthentication, ResultSuccess, SeverityInfo},
		{ActionAuthentication, ResultFailure, SeverityError},
		{ActionAuthentication, ResultDenied, SeverityWarning},
		{ActionSecurityEvent, ResultSuccess, SeverityWarning},
		{ActionSecurityEvent, ResultFailure, SeverityCritical},
		{ActionSecurityEvent, ResultDenied, SeverityWarning},
		{ActionFileTransfer, ResultSuccess, SeverityDebug},
		{ActionFileTransfer, ResultFailure, SeverityWarning},
		{ActionFileTransfer, ResultDenied, SeverityWarning},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifySeverity(c.action, c.result))
	}
}

func TestRequiresSIEM(t *testing.T) {
	assert.True(t, RequiresSIEM(Event{Action: ActionFileTransfer, Result: ResultFailure}))
	assert.True(t, RequiresSIEM(Event{Action: ActionSecurityEvent, Result: ResultSuccess}))
	assert.False(t, RequiresSIEM(Event{Action: ActionFileTransfer, Result: ResultSuccess}))
}
