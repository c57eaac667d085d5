// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"encoding/json"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestEncodeActionTotality(t *testing.T) {
	t.Parallel()
	// Every action type with an empty fields object encodes to a
	// payload containing only the action type.
	types := []ActionType{
		ActionClick, ActionTypeText, ActionNavigate, ActionScroll,
		ActionCustom, ActionSkip, ActionAbort,
	}
	for _, actionType := range types {
		action := EncodeAction(actionType, ActionFields{})
		if action.ActionType != actionType {
			t.Errorf("EncodeAction(%s) type = %s", actionType, action.ActionType)
		}
		encoded, err := json.Marshal(action)
		if err != nil {
			t.Fatalf("marshalling %s action: %v", actionType, err)
		}
		var fields map[string]any
		if err := json.Unmarshal(encoded, &fields); err != nil {
			t.Fatalf("unmarshalling %s action: %v", actionType, err)
		}
		if len(fields) != 1 {
			t.Errorf("empty %s action carries extra fields: %s", actionType, encoded)
		}
	}
}

func TestEncodeActionClick(t *testing.T) {
	t.Parallel()
	action := EncodeAction(ActionClick, ActionFields{
		Selector: "#submit",
		X:        intPtr(960),
		Y:        intPtr(540),
		Value:    "ignored for click",
		Message:  "press the captcha button",
	})
	if action.Selector != "#submit" {
		t.Errorf("Selector = %q", action.Selector)
	}
	if action.X == nil || *action.X != 960 || action.Y == nil || *action.Y != 540 {
		t.Errorf("coordinates = %v,%v", action.X, action.Y)
	}
	if action.Value != "" {
		t.Errorf("click carried Value %q", action.Value)
	}
	if action.Message != "press the captcha button" {
		t.Errorf("Message = %q", action.Message)
	}
}

func TestEncodeActionSkipAndAbortIgnoreFields(t *testing.T) {
	t.Parallel()
	for _, actionType := range []ActionType{ActionSkip, ActionAbort} {
		action := EncodeAction(actionType, ActionFields{
			Selector:     "#x",
			Value:        "v",
			X:            intPtr(1),
			Y:            intPtr(2),
			CustomScript: "alert(1)",
			Message:      "context survives",
		})
		if action.Selector != "" || action.Value != "" || action.X != nil ||
			action.Y != nil || action.CustomScript != "" {
			t.Errorf("%s carried coordinate/selector/value fields: %+v", actionType, action)
		}
		if action.Message != "context survives" {
			t.Errorf("%s dropped Message", actionType)
		}
	}
}

func TestEncodeActionScrollDelta(t *testing.T) {
	t.Parallel()
	action := EncodeAction(ActionScroll, ActionFields{Y: intPtr(-300), Value: "-300"})
	if action.Y == nil || *action.Y != -300 {
		t.Errorf("scroll delta = %v", action.Y)
	}
	if action.Value != "-300" {
		t.Errorf("scroll Value = %q", action.Value)
	}
}

func TestEncodeActionCustomScript(t *testing.T) {
	t.Parallel()
	action := EncodeAction(ActionCustom, ActionFields{
		CustomScript: "document.querySelector('#consent').click()",
		Selector:     "#ignored",
	})
	if action.CustomScript == "" || action.Selector != "" {
		t.Errorf("custom action = %+v", action)
	}
}

func TestValidateActionAdvisory(t *testing.T) {
	t.Parallel()
	// A coordinate-less, selector-less click is flagged but still a
	// valid payload: validation is advisory, the encoder never
	// rejects.
	problems := ValidateAction(EncodeAction(ActionClick, ActionFields{}))
	if len(problems) == 0 {
		t.Error("expected advisory problem for empty click")
	}
	problems = ValidateAction(EncodeAction(ActionClick, ActionFields{X: intPtr(1), Y: intPtr(2)}))
	if len(problems) != 0 {
		t.Errorf("coordinate click flagged: %v", problems)
	}
	problems = ValidateAction(EncodeAction(ActionSkip, ActionFields{}))
	if len(problems) != 0 {
		t.Errorf("skip flagged: %v", problems)
	}
}
