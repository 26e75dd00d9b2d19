package models

import (
	"reflect"
	"testing"
	"time"
)

func TestGetReminderTimes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		policy ReminderPolicy
		want   []float64
	}{
		{
			"single lead time",
			ReminderPolicy{ReminderHoursBefore: 24},
			[]float64{24},
		},
		{
			"multiple lead times",
			ReminderPolicy{ReminderHoursBefore: 24, EnableMultipleReminders: true, ReminderTimes: "24,2,0.5"},
			[]float64{24, 2, 0.5},
		},
		{
			"multiple with spaces",
			ReminderPolicy{ReminderHoursBefore: 24, EnableMultipleReminders: true, ReminderTimes: " 48 , 1 "},
			[]float64{48, 1},
		},
		{
			"malformed list falls back to single",
			ReminderPolicy{ReminderHoursBefore: 12, EnableMultipleReminders: true, ReminderTimes: "24,abc"},
			[]float64{12},
		},
		{
			"multiple disabled ignores the list",
			ReminderPolicy{ReminderHoursBefore: 6, ReminderTimes: "24,2"},
			[]float64{6},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.policy.GetReminderTimes(); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("GetReminderTimes = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReminderPolicyValidate(t *testing.T) {
	t.Parallel()

	disabled := ReminderPolicy{}
	if err := disabled.Validate(); err != nil {
		t.Errorf("disabled policy should always validate, got %v", err)
	}

	ok := ReminderPolicy{Enabled: true, EventTypeFilter: "Livraison", ReminderHoursBefore: 24}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid policy returned error: %v", err)
	}

	invalid := []ReminderPolicy{
		{Enabled: true, ReminderHoursBefore: 24},
		{Enabled: true, EventTypeFilter: "Livraison"},
		{Enabled: true, EventTypeFilter: "Livraison", ReminderHoursBefore: 24, EnableMultipleReminders: true},
		{Enabled: true, EventTypeFilter: "Livraison", ReminderHoursBefore: 24, EnableMultipleReminders: true, ReminderTimes: "24,x"},
		{Enabled: true, EventTypeFilter: "Livraison", ReminderHoursBefore: 24, EnableMultipleReminders: true, ReminderTimes: "24,-2"},
	}
	for i, policy := range invalid {
		if err := policy.Validate(); err == nil {
			t.Errorf("case %d: expected validation error, got nil", i)
		}
	}
}

func TestMessageTemplate(t *testing.T) {
	t.Parallel()

	policy := ReminderPolicy{
		DefaultTemplate:  "default",
		CustomerTemplate: "for customers",
	}

	if got := policy.MessageTemplate("customer"); got != "for customers" {
		t.Errorf("customer template = %q", got)
	}
	if got := policy.MessageTemplate("employee"); got != "default" {
		t.Errorf("employee template should fall back to default, got %q", got)
	}
	if got := policy.MessageTemplate("other"); got != "default" {
		t.Errorf("unknown recipient type should fall back to default, got %q", got)
	}
}

func TestEventTypes(t *testing.T) {
	t.Parallel()

	policy := ReminderPolicy{EventTypeFilter: "Livraison, Réparation , ,Installation"}
	want := []string{"Livraison", "Réparation", "Installation"}
	if got := policy.EventTypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("EventTypes = %v, want %v", got, want)
	}
}

func TestShouldSendNow(t *testing.T) {
	t.Parallel()

	monday10 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)  // Monday
	monday22 := time.Date(2026, 1, 5, 22, 0, 0, 0, time.UTC)  // Monday night
	saturday := time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)  // Saturday
	monday6am := time.Date(2026, 1, 5, 6, 30, 0, 0, time.UTC) // before opening

	open := ReminderPolicy{BusinessHoursOnly: true, BusinessStartTime: "08:00", BusinessEndTime: "19:00"}
	if !open.ShouldSendNow(monday10) {
		t.Error("expected sending allowed inside business hours")
	}
	if open.ShouldSendNow(monday22) {
		t.Error("expected sending blocked after closing time")
	}
	if open.ShouldSendNow(monday6am) {
		t.Error("expected sending blocked before opening time")
	}

	weekdays := ReminderPolicy{ExcludeWeekends: true}
	if weekdays.ShouldSendNow(saturday) {
		t.Error("expected sending blocked on Saturday")
	}
	if !weekdays.ShouldSendNow(monday10) {
		t.Error("expected sending allowed on Monday")
	}

	always := ReminderPolicy{}
	if !always.ShouldSendNow(saturday) {
		t.Error("unrestricted policy should always allow sending")
	}
}

func TestLeadBucketLabel(t *testing.T) {
	t.Parallel()

	if got := LeadBucketLabel(24); got != "24" {
		t.Errorf("LeadBucketLabel(24) = %q, want %q", got, "24")
	}
	if got := LeadBucketLabel(0.5); got != "0.5" {
		t.Errorf("LeadBucketLabel(0.5) = %q, want %q", got, "0.5")
	}
}
