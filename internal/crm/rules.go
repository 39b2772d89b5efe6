package crm

import (
	"fmt"
	"time"
)

// DemoRecencyDays is the freshness window for the Demo Done exit condition:
// a conducted demo older than this no longer supports an advance.
const DemoRecencyDays = 60

// Decision is the outcome of a single rule check. Reason is empty when allowed.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// stageRestrictions maps a stage to the actions forbidden while a company sits
// on it. These block skipping ahead to actions that belong to a later stage.
// Stages not listed carry no restrictions.
var stageRestrictions = map[Stage][]EventType{
	StageTouched: {
		EventApplicationCreated,
		EventCpSent,
		EventDemoPlanned,
		EventDemoConducted,
	},
	StageAware: {
		EventDemoPlanned,
		EventDemoConducted,
	},
	StageInterested: {
		EventApplicationCreated,
		EventCpSent,
	},
	StageDemoPlanned: {
		EventApplicationCreated,
		EventCpSent,
	},
}

// stageActions maps a stage to the curated forward-looking actions a manager
// should be offered there. Not the complement of the restrictions: a curated
// subset. Terminal and Null stages offer none.
var stageActions = map[Stage][]EventType{
	StageIce:         {EventContactAttempt},
	StageTouched:     {EventContactAttempt, EventLprConversation},
	StageAware:       {EventDiscoveryFilled},
	StageInterested:  {EventDemoPlanned},
	StageDemoPlanned: {EventDemoConducted},
	StageDemoDone:    {EventApplicationCreated, EventCpSent, EventInvoiceIssued},
	StageCommitted:   {EventPaymentReceived},
	StageCustomer:    {EventCertificateIssued},
	StageActivated:   {},
	StageNull:        {},
}

// Engine evaluates the stage transition rules. It is stateless and
// deterministic over (stage, event log); the only time-relative input is the
// clock used by the Demo Done freshness window, injectable for tests.
type Engine struct {
	nowFn func() time.Time
}

// NewEngine returns an Engine on the wall clock.
func NewEngine() *Engine {
	return &Engine{nowFn: time.Now}
}

// NewEngineWithClock returns an Engine whose "now" is supplied by nowFn.
func NewEngineWithClock(nowFn func() time.Time) *Engine {
	if nowFn == nil {
		panic("crm: nowFn must not be nil")
	}
	return &Engine{nowFn: nowFn}
}

// Restrictions returns the actions forbidden on the given stage.
func (e *Engine) Restrictions(s Stage) []EventType {
	restricted := stageRestrictions[s]
	out := make([]EventType, len(restricted))
	copy(out, restricted)
	return out
}

// AvailableActions returns the curated actions to offer on the given stage.
func (e *Engine) AvailableActions(s Stage) []EventType {
	actions := stageActions[s]
	out := make([]EventType, len(actions))
	copy(out, actions)
	return out
}

// CanPerformAction decides whether the action is permitted on the company's
// current stage. Denied only when the action is restricted there.
func (e *Engine) CanPerformAction(c *Company, action EventType) Decision {
	for _, restricted := range stageRestrictions[c.Stage] {
		if action == restricted {
			return deny(fmt.Sprintf(
				"Action %q is not allowed on stage %s (%s)",
				action.Label(), c.Stage, c.Stage.Label(),
			))
		}
	}
	return allow()
}

// CanAdvance decides whether the company's exit condition holds, i.e. whether
// it may move to the next stage. Every stage has a defined answer.
func (e *Engine) CanAdvance(c *Company) Decision {
	switch c.Stage {
	case StageIce:
		return exitCheck(c, EventContactAttempt, "Needs at least one contact attempt")
	case StageTouched:
		return exitCheck(c, EventLprConversation, "Needs a conversation with the decision maker")
	case StageAware:
		return exitCheck(c, EventDiscoveryFilled, "Needs a completed discovery form")
	case StageInterested:
		return exitCheck(c, EventDemoPlanned, "Needs a scheduled demo (date and time)")
	case StageDemoPlanned:
		return exitCheck(c, EventDemoConducted, "Needs a conducted demo")
	case StageDemoDone:
		return e.canExitDemoDone(c)
	case StageCommitted:
		return exitCheck(c, EventPaymentReceived, "Needs a received payment")
	case StageCustomer:
		return exitCheck(c, EventCertificateIssued, "Needs an issued certificate")
	case StageActivated:
		return deny("Final stage reached")
	case StageNull:
		return deny("Company is parked in Null")
	default:
		return deny(fmt.Sprintf("Unknown stage %q", c.Stage))
	}
}

// exitCheck covers the common single-event exit conditions.
func exitCheck(c *Company, t EventType, reason string) Decision {
	if c.HasEvent(t) {
		return allow()
	}
	return deny(reason)
}

// canExitDemoDone is the one compound, time-sensitive exit condition: a fresh
// demo plus an application and/or invoice. Staleness is checked first and
// fails closed, so a stale demo blocks even when the paperwork exists.
func (e *Engine) canExitDemoDone(c *Company) Decision {
	if !c.HasRecentEvent(EventDemoConducted, DemoRecencyDays, e.nowFn()) {
		return deny(fmt.Sprintf("Demo is missing or older than %d days", DemoRecencyDays))
	}
	if !c.HasEvent(EventInvoiceIssued) && !c.HasEvent(EventApplicationCreated) {
		return deny("Needs an application and/or an issued invoice")
	}
	return allow()
}
