package crm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewEngineWithClock(func() time.Time { return testNow })
}

func companyAt(stage Stage, events ...Event) *Company {
	return &Company{ID: 1, Name: "Acme", Stage: stage, Events: events}
}

func loggedEvent(id int64, t EventType, age time.Duration) Event {
	return Event{ID: id, CompanyID: 1, Type: t, Data: map[string]any{}, CreatedAt: testNow.Add(-age)}
}

func TestRestrictions(t *testing.T) {
	e := testEngine()

	tests := []struct {
		stage Stage
		want  []EventType
	}{
		{StageTouched, []EventType{EventApplicationCreated, EventCpSent, EventDemoPlanned, EventDemoConducted}},
		{StageAware, []EventType{EventDemoPlanned, EventDemoConducted}},
		{StageInterested, []EventType{EventApplicationCreated, EventCpSent}},
		{StageDemoPlanned, []EventType{EventApplicationCreated, EventCpSent}},
		{StageIce, []EventType{}},
		{StageDemoDone, []EventType{}},
		{StageCommitted, []EventType{}},
		{StageCustomer, []EventType{}},
		{StageActivated, []EventType{}},
		{StageNull, []EventType{}},
	}

	for _, tc := range tests {
		t.Run(string(tc.stage), func(t *testing.T) {
			require.Equal(t, tc.want, e.Restrictions(tc.stage))
		})
	}
}

func TestAvailableActions(t *testing.T) {
	e := testEngine()

	require.Equal(t, []EventType{EventContactAttempt}, e.AvailableActions(StageIce))
	require.Equal(t, []EventType{EventContactAttempt, EventLprConversation}, e.AvailableActions(StageTouched))
	require.Equal(t, []EventType{EventApplicationCreated, EventCpSent, EventInvoiceIssued}, e.AvailableActions(StageDemoDone))
	require.Empty(t, e.AvailableActions(StageActivated))
	require.Empty(t, e.AvailableActions(StageNull))

	// Every stage has a defined (possibly empty) action set.
	for _, s := range Stages {
		require.NotNil(t, e.AvailableActions(s))
	}
}

func TestCanPerformAction(t *testing.T) {
	e := testEngine()

	denied := e.CanPerformAction(companyAt(StageTouched), EventDemoPlanned)
	require.False(t, denied.Allowed)
	require.Contains(t, denied.Reason, "Demo planned")
	require.Contains(t, denied.Reason, "C1")
	require.Contains(t, denied.Reason, "Touched")

	allowed := e.CanPerformAction(companyAt(StageTouched), EventContactAttempt)
	require.True(t, allowed.Allowed)
	require.Empty(t, allowed.Reason)

	// Unrestricted stages allow everything.
	for _, action := range EventTypes {
		require.True(t, e.CanPerformAction(companyAt(StageIce), action).Allowed)
	}
}

func TestCanPerformAction_Idempotent(t *testing.T) {
	e := testEngine()
	c := companyAt(StageAware)

	first := e.CanPerformAction(c, EventDemoConducted)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, e.CanPerformAction(c, EventDemoConducted))
	}
}

func TestCanAdvance_SingleEventConditions(t *testing.T) {
	e := testEngine()

	tests := []struct {
		stage    Stage
		required EventType
	}{
		{StageIce, EventContactAttempt},
		{StageTouched, EventLprConversation},
		{StageAware, EventDiscoveryFilled},
		{StageInterested, EventDemoPlanned},
		{StageDemoPlanned, EventDemoConducted},
		{StageCommitted, EventPaymentReceived},
		{StageCustomer, EventCertificateIssued},
	}

	for _, tc := range tests {
		t.Run(string(tc.stage), func(t *testing.T) {
			blocked := e.CanAdvance(companyAt(tc.stage))
			require.False(t, blocked.Allowed)
			require.NotEmpty(t, blocked.Reason)

			satisfied := e.CanAdvance(companyAt(tc.stage, loggedEvent(1, tc.required, time.Hour)))
			require.True(t, satisfied.Allowed)
		})
	}
}

func TestCanAdvance_Terminals(t *testing.T) {
	e := testEngine()

	final := e.CanAdvance(companyAt(StageActivated))
	require.False(t, final.Allowed)
	require.Equal(t, "Final stage reached", final.Reason)

	parked := e.CanAdvance(companyAt(StageNull))
	require.False(t, parked.Allowed)
	require.Equal(t, "Company is parked in Null", parked.Reason)
}

func TestCanAdvance_DemoDone(t *testing.T) {
	e := testEngine()

	day := 24 * time.Hour

	tests := []struct {
		name       string
		events     []Event
		allowed    bool
		wantReason string
	}{
		{
			name: "fresh demo with invoice",
			events: []Event{
				loggedEvent(1, EventDemoConducted, 10*day),
				loggedEvent(2, EventInvoiceIssued, 5*day),
			},
			allowed: true,
		},
		{
			name: "fresh demo with application",
			events: []Event{
				loggedEvent(1, EventDemoConducted, 10*day),
				loggedEvent(2, EventApplicationCreated, 5*day),
			},
			allowed: true,
		},
		{
			name: "demo exactly at the window boundary",
			events: []Event{
				loggedEvent(1, EventDemoConducted, 60*day),
				loggedEvent(2, EventInvoiceIssued, 5*day),
			},
			allowed: true,
		},
		{
			name: "stale demo despite invoice",
			events: []Event{
				loggedEvent(1, EventDemoConducted, 90*day),
				loggedEvent(2, EventInvoiceIssued, 5*day),
			},
			allowed:    false,
			wantReason: "Demo is missing or older than 60 days",
		},
		{
			name: "fresh demo but no paperwork",
			events: []Event{
				loggedEvent(1, EventDemoConducted, 10*day),
			},
			allowed:    false,
			wantReason: "Needs an application and/or an issued invoice",
		},
		{
			name:       "no demo at all",
			events:     nil,
			allowed:    false,
			wantReason: "Demo is missing or older than 60 days",
		},
		{
			// Both sub-conditions fail: staleness wins the reason.
			name: "stale demo and no paperwork",
			events: []Event{
				loggedEvent(1, EventDemoConducted, 90*day),
			},
			allowed:    false,
			wantReason: "Demo is missing or older than 60 days",
		},
		{
			// A stale demo does not mask a later fresh one.
			name: "stale then fresh demo with invoice",
			events: []Event{
				loggedEvent(1, EventDemoConducted, 90*day),
				loggedEvent(2, EventDemoConducted, 2*day),
				loggedEvent(3, EventInvoiceIssued, day),
			},
			allowed: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := e.CanAdvance(companyAt(StageDemoDone, tc.events...))
			require.Equal(t, tc.allowed, decision.Allowed)
			if tc.wantReason != "" {
				require.Equal(t, tc.wantReason, decision.Reason)
			}
		})
	}
}

func TestCanAdvance_Deterministic(t *testing.T) {
	e := testEngine()
	c := companyAt(StageDemoDone,
		loggedEvent(1, EventDemoConducted, 10*24*time.Hour),
		loggedEvent(2, EventInvoiceIssued, 24*time.Hour),
	)

	first := e.CanAdvance(c)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, e.CanAdvance(c), "replaying the same log must yield the same decision")
	}
}

func TestInstruction_CoversAllStages(t *testing.T) {
	e := testEngine()
	for _, s := range Stages {
		require.NotEmptyf(t, e.Instruction(s), "stage %s has no playbook entry", s)
	}
}
