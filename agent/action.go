// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

// ActionType identifies what an operator wants the browser to do to
// unblock a waiting job.
type ActionType string

const (
	// ActionClick clicks an element by selector or by natural-space
	// coordinates.
	ActionClick ActionType = "click"
	// ActionTypeText types text into an element.
	ActionTypeText ActionType = "type"
	// ActionNavigate loads a URL.
	ActionNavigate ActionType = "navigate"
	// ActionScroll scrolls the page by a pixel delta.
	ActionScroll ActionType = "scroll"
	// ActionCustom executes an operator-supplied script.
	ActionCustom ActionType = "custom"
	// ActionSkip tells the agent to move past the blocked step.
	ActionSkip ActionType = "skip"
	// ActionAbort tells the agent to give up the run.
	ActionAbort ActionType = "abort"
)

// HumanAction is the payload submitted to resolve a waiting_human
// state. Unset fields are omitted on the wire.
type HumanAction struct {
	ActionType   ActionType `json:"action_type"`
	Selector     string     `json:"selector,omitempty"`
	Value        string     `json:"value,omitempty"`
	X            *int       `json:"x,omitempty"`
	Y            *int       `json:"y,omitempty"`
	CustomScript string     `json:"custom_script,omitempty"`

	// Message is free-text context passed to the agent regardless of
	// action type.
	Message string `json:"message,omitempty"`
}

// ActionFields carries the optional inputs an operator may have
// provided. Zero values mean "not provided"; coordinates use pointers
// because (0,0) is a valid click target.
type ActionFields struct {
	Selector     string
	Value        string
	X            *int
	Y            *int
	CustomScript string
	Message      string
}

// EncodeAction builds the canonical HumanAction for an operator
// choice. It is total: any action type with any combination of fields
// encodes without error, and only the fields the action type consumes
// are carried. Skip and abort ignore everything except Message.
//
// Missing click targets are not rejected here — validation is
// advisory (see ValidateAction) and the engine makes the final call.
func EncodeAction(actionType ActionType, fields ActionFields) HumanAction {
	action := HumanAction{
		ActionType: actionType,
		Message:    fields.Message,
	}
	switch actionType {
	case ActionClick:
		action.Selector = fields.Selector
		action.X = fields.X
		action.Y = fields.Y
	case ActionTypeText:
		action.Selector = fields.Selector
		action.Value = fields.Value
	case ActionNavigate:
		action.Value = fields.Value
	case ActionScroll:
		// The scroll delta rides in Y; Value carries the same delta as
		// a string for engines that predate the numeric field.
		action.Y = fields.Y
		action.Value = fields.Value
	case ActionCustom:
		action.CustomScript = fields.CustomScript
	case ActionSkip, ActionAbort:
		// Intentionally nothing beyond Message.
	}
	return action
}

// ValidateAction reports advisory problems with an encoded action:
// conditions the engine will likely reject or ignore. An empty slice
// means no concerns. Submission is never blocked on these.
func ValidateAction(action HumanAction) []string {
	var problems []string
	switch action.ActionType {
	case ActionClick:
		if action.Selector == "" && (action.X == nil || action.Y == nil) {
			problems = append(problems, "click needs a selector or both x and y")
		}
	case ActionTypeText:
		if action.Value == "" {
			problems = append(problems, "type has no text to enter")
		}
	case ActionNavigate:
		if action.Value == "" {
			problems = append(problems, "navigate has no URL")
		}
	case ActionScroll:
		if action.Y == nil && action.Value == "" {
			problems = append(problems, "scroll has no delta")
		}
	case ActionCustom:
		if action.CustomScript == "" {
			problems = append(problems, "custom has no script")
		}
	}
	return problems
}
