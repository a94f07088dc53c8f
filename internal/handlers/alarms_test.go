package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"roaster_control/internal/service"
	"roaster_control/internal/trigger"
)

func alarmsService(al *mockAlarms) *service.Service {
	return &service.Service{
		Authorization: &mockAuth{parseID: 7},
		Alarms:        al,
	}
}

func TestAlarmHandlers_GetAndPut(t *testing.T) {
	al := &mockAlarms{set: trigger.AlarmSet{
		Name:   "safety",
		Status: trigger.AlarmsArmed,
		Alarms: []trigger.Alarm{{ID: "a1", Sound: "chime", Enabled: true}},
	}}
	r := newTestRouter(alarmsService(al))

	w := doRequest(t, r, http.MethodGet, "/api/v1/machines/roaster-1/alarms/", "", authHeader("t"))
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d, body=%s", w.Code, w.Body.String())
	}
	var got trigger.AlarmSet
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "safety" || len(got.Alarms) != 1 {
		t.Fatalf("unexpected set: %+v", got)
	}

	body := `{"name":"new","alarms":[{"id":"a2","condition":{"kind":"THRESHOLD","signal":"BEAN_TEMP","threshold":205,"direction":"RISING"},"sound":"bell","enabled":true}]}`
	w = doRequest(t, r, http.MethodPut, "/api/v1/machines/roaster-1/alarms/", body, authHeader("t"))
	if w.Code != http.StatusOK {
		t.Fatalf("put status=%d, body=%s", w.Code, w.Body.String())
	}
	if al.set.Status != trigger.AlarmsIdle || al.set.Alarms[0].ID != "a2" {
		t.Fatalf("installed set wrong: %+v", al.set)
	}
	if al.set.Alarms[0].Condition.Threshold != 205 {
		t.Fatalf("condition not decoded: %+v", al.set.Alarms[0].Condition)
	}
}

func TestAlarmHandlers_LifecycleOps(t *testing.T) {
	al := &mockAlarms{}
	r := newTestRouter(alarmsService(al))

	for _, path := range []string{"arm", "disarm", "reset"} {
		w := doRequest(t, r, http.MethodPost, "/api/v1/machines/roaster-1/alarms/"+path, "", authHeader("t"))
		if w.Code != http.StatusOK {
			t.Fatalf("%s status=%d, body=%s", path, w.Code, w.Body.String())
		}
	}
}

func TestAlarmHandlers_SilenceOneAndAll(t *testing.T) {
	al := &mockAlarms{}
	r := newTestRouter(alarmsService(al))

	w := doRequest(t, r, http.MethodPost, "/api/v1/machines/roaster-1/alarms/silence",
		`{"alarm_id":"a1"}`, authHeader("t"))
	if w.Code != http.StatusOK {
		t.Fatalf("silence status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(al.silenced) != 1 || al.silenced[0] != "a1" {
		t.Fatalf("silence not forwarded: %v", al.silenced)
	}

	// Empty body silences everything.
	w = doRequest(t, r, http.MethodPost, "/api/v1/machines/roaster-1/alarms/silence", "", authHeader("t"))
	if w.Code != http.StatusOK {
		t.Fatalf("silence-all status=%d, body=%s", w.Code, w.Body.String())
	}
	if al.silencedAll != 1 {
		t.Fatalf("silence-all calls %d", al.silencedAll)
	}
}

func TestAlarmHandlers_SaveAndLoad(t *testing.T) {
	al := &mockAlarms{savedID: "stored-9"}
	r := newTestRouter(alarmsService(al))

	w := doRequest(t, r, http.MethodPost, "/api/v1/machines/roaster-1/alarms/save",
		`{"name":"safety"}`, authHeader("t"))
	if w.Code != http.StatusOK {
		t.Fatalf("save status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ID != "stored-9" {
		t.Fatalf("save id %q", resp.ID)
	}

	w = doRequest(t, r, http.MethodPost, "/api/v1/machines/roaster-1/alarms/load/stored-9", "", authHeader("t"))
	if w.Code != http.StatusOK {
		t.Fatalf("load status=%d, body=%s", w.Code, w.Body.String())
	}

	// name is required on save
	w = doRequest(t, r, http.MethodPost, "/api/v1/machines/roaster-1/alarms/save", `{}`, authHeader("t"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
