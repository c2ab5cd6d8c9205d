package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgehr/backend/internal/domain/shared"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewStepRegistry(DefaultCatalog())
	require.NoError(t, err)
	return NewResolver(r)
}

func TestResolverCanEnter(t *testing.T) {
	resolver := newTestResolver(t)

	t.Run("root step always enterable", func(t *testing.T) {
		assert.NoError(t, resolver.CanEnter(StepPersonalInfo, nil, nil))
	})

	t.Run("unknown step", func(t *testing.T) {
		err := resolver.CanEnter("no-such-step", nil, nil)
		assertDomainCode(t, err, shared.CodeStepNotFound)
	})

	t.Run("dependency not satisfied carries missing ids", func(t *testing.T) {
		err := resolver.CanEnter(StepW4Form, nil, nil)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeDependencyNotSatisfied, domainErr.Code)
		assert.Equal(t, []string{string(StepI9Section1)}, domainErr.Details["missing_steps"])
	})

	t.Run("enterable once dependencies complete", func(t *testing.T) {
		completed := []StepID{StepPersonalInfo, StepI9Section1}
		assert.NoError(t, resolver.CanEnter(StepW4Form, completed, nil))
	})

	t.Run("conditional step closed without deciding payload", func(t *testing.T) {
		completed := []StepID{StepPersonalInfo, StepI9Section1}
		err := resolver.CanEnter(StepI9Supplement, completed, nil)
		assertDomainCode(t, err, shared.CodeStepNotAvailable)
	})

	t.Run("conditional step closed for citizens", func(t *testing.T) {
		completed := []StepID{StepPersonalInfo, StepI9Section1}
		payloads := map[StepID]Payload{
			StepI9Section1: {"citizenship_status": "citizen"},
		}
		err := resolver.CanEnter(StepI9Supplement, completed, payloads)
		assertDomainCode(t, err, shared.CodeStepNotAvailable)
	})

	t.Run("conditional step open for permanent residents", func(t *testing.T) {
		completed := []StepID{StepPersonalInfo, StepI9Section1}
		payloads := map[StepID]Payload{
			StepI9Section1: {"citizenship_status": "permanent_resident"},
		}
		assert.NoError(t, resolver.CanEnter(StepI9Supplement, completed, payloads))
	})
}

func TestResolverNextStep(t *testing.T) {
	resolver := newTestResolver(t)

	t.Run("fresh session starts at first step", func(t *testing.T) {
		next := resolver.NextStep(nil, nil)
		require.NotNil(t, next)
		assert.Equal(t, StepPersonalInfo, next.ID)
	})

	t.Run("declaration order breaks ties", func(t *testing.T) {
		// personal-info done unlocks emergency-contact, i9-section1 and
		// direct-deposit at once; declaration order picks the first
		next := resolver.NextStep([]StepID{StepPersonalInfo}, nil)
		require.NotNil(t, next)
		assert.Equal(t, StepEmergencyContact, next.ID)
	})

	t.Run("skips inapplicable conditional step", func(t *testing.T) {
		completed := []StepID{StepPersonalInfo, StepEmergencyContact, StepI9Section1}
		payloads := map[StepID]Payload{
			StepI9Section1: {"citizenship_status": "citizen"},
		}
		next := resolver.NextStep(completed, payloads)
		require.NotNil(t, next)
		assert.Equal(t, StepW4Form, next.ID)
	})

	t.Run("routes through supplement for non-citizens", func(t *testing.T) {
		completed := []StepID{StepPersonalInfo, StepEmergencyContact, StepI9Section1}
		payloads := map[StepID]Payload{
			StepI9Section1: {"citizenship_status": "authorized_alien"},
		}
		next := resolver.NextStep(completed, payloads)
		require.NotNil(t, next)
		assert.Equal(t, StepI9Supplement, next.ID)
	})

	t.Run("nil when everything applicable is done", func(t *testing.T) {
		completed := []StepID{
			StepPersonalInfo, StepEmergencyContact, StepI9Section1,
			StepW4Form, StepDirectDeposit, StepPolicyAck,
		}
		payloads := map[StepID]Payload{
			StepI9Section1: {"citizenship_status": "citizen"},
		}
		assert.Nil(t, resolver.NextStep(completed, payloads))
	})
}

func TestResolverOutstandingRequired(t *testing.T) {
	resolver := newTestResolver(t)

	t.Run("false conditional does not block review", func(t *testing.T) {
		completed := []StepID{StepPersonalInfo, StepI9Section1, StepW4Form, StepPolicyAck}
		payloads := map[StepID]Payload{
			StepI9Section1: {"citizenship_status": "citizen"},
		}
		assert.Empty(t, resolver.OutstandingRequired(completed, payloads))
	})

	t.Run("true conditional counts as required", func(t *testing.T) {
		completed := []StepID{StepPersonalInfo, StepI9Section1, StepW4Form, StepPolicyAck}
		payloads := map[StepID]Payload{
			StepI9Section1: {"citizenship_status": "authorized_alien"},
		}
		outstanding := resolver.OutstandingRequired(completed, payloads)
		assert.Equal(t, []StepID{StepI9Supplement}, outstanding)
	})

	t.Run("optional steps never outstanding", func(t *testing.T) {
		outstanding := resolver.OutstandingRequired(nil, nil)
		assert.NotContains(t, outstanding, StepEmergencyContact)
		assert.NotContains(t, outstanding, StepDirectDeposit)
	})
}

func TestResolverComplianceSteps(t *testing.T) {
	resolver := newTestResolver(t)

	completed := []StepID{StepPersonalInfo, StepI9Section1, StepW4Form}
	payloads := map[StepID]Payload{
		StepI9Section1: {"citizenship_status": "citizen"},
	}
	steps := resolver.ComplianceSteps(completed, payloads)
	ids := make([]StepID, 0, len(steps))
	for _, def := range steps {
		ids = append(ids, def.ID)
	}
	assert.Equal(t, []StepID{StepI9Section1, StepW4Form}, ids)
}

func TestResolverValidPrefix(t *testing.T) {
	resolver := newTestResolver(t)

	cases := []struct {
		name      string
		completed []StepID
		valid     bool
	}{
		{"empty", nil, true},
		{"in order", []StepID{StepPersonalInfo, StepI9Section1, StepW4Form}, true},
		{"dependency after dependent", []StepID{StepI9Section1, StepPersonalInfo}, false},
		{"unknown id", []StepID{"ghost-step"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, resolver.ValidPrefix(tc.completed))
		})
	}
}
