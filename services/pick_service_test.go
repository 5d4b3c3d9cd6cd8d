package services_test

import (
	"testing"
	"time"

	"ufc-picks/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickRoutesOpenToRegularUsers(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	seedUser(t, db, "admin", true, true)
	user := seedUser(t, db, "joe", false, false)
	event := seedEvent(t, db, "UFC 308", time.Hour, 2*time.Hour, 1)

	// Submission must not sit behind the admin gate of the event routes.
	resp, body := doJSON(t, app, "POST", "/api/events/"+event.ID+"/picks", user.ID,
		map[string]interface{}{"picks": []map[string]interface{}{
			{"fight_id": event.Fights[0].ID, "predicted_winner": 1, "predicted_method": "Decision"},
		}})
	require.Equal(t, 201, resp.StatusCode, "%v", body)

	resp, _ = doJSON(t, app, "GET", "/api/events/"+event.ID+"/picks/me", user.ID, nil)
	assert.Equal(t, 200, resp.StatusCode)

	// Anonymous callers are still turned away.
	resp, _ = doJSON(t, app, "POST", "/api/events/"+event.ID+"/picks", "",
		map[string]interface{}{"picks": []map[string]interface{}{}})
	assert.Equal(t, 401, resp.StatusCode)
}

func TestSubmitPicksValidation(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	user := seedUser(t, db, "joe", false, false)
	event := seedEvent(t, db, "UFC 320", time.Hour, 2*time.Hour, 2)
	fight := event.Fights[0]

	cases := []struct {
		name  string
		picks []map[string]interface{}
	}{
		{"empty", []map[string]interface{}{}},
		{"unknown fight", []map[string]interface{}{
			{"fight_id": "nope", "predicted_winner": 1, "predicted_method": "Decision"}}},
		{"bad winner", []map[string]interface{}{
			{"fight_id": fight.ID, "predicted_winner": 0, "predicted_method": "Decision"}}},
		{"bad method", []map[string]interface{}{
			{"fight_id": fight.ID, "predicted_winner": 1, "predicted_method": "Armbar"}}},
		{"decision with round", []map[string]interface{}{
			{"fight_id": fight.ID, "predicted_winner": 1, "predicted_method": "Decision", "predicted_round": 2}}},
		{"finish without round", []map[string]interface{}{
			{"fight_id": fight.ID, "predicted_winner": 1, "predicted_method": "KO/TKO"}}},
		{"round out of range", []map[string]interface{}{
			{"fight_id": fight.ID, "predicted_winner": 1, "predicted_method": "KO/TKO", "predicted_round": 6}}},
		{"duplicate fight", []map[string]interface{}{
			{"fight_id": fight.ID, "predicted_winner": 1, "predicted_method": "Decision"},
			{"fight_id": fight.ID, "predicted_winner": 2, "predicted_method": "Decision"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doJSON(t, app, "POST", "/api/events/"+event.ID+"/picks", user.ID,
				map[string]interface{}{"picks": tc.picks})
			assert.Equal(t, 400, resp.StatusCode)
		})
	}

	// Nothing should have been persisted by the rejected submissions.
	var count int64
	db.Model(&models.PickSet{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSubmitPicksRejectedAfterDeadline(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	user := seedUser(t, db, "joe", false, false)
	// Deadline an hour ago, event still in the future, status still upcoming.
	event := seedEvent(t, db, "UFC 321", -time.Hour, 2*time.Hour, 1)

	resp, body := doJSON(t, app, "POST", "/api/events/"+event.ID+"/picks", user.ID,
		map[string]interface{}{"picks": []map[string]interface{}{
			{"fight_id": event.Fights[0].ID, "predicted_winner": 1, "predicted_method": "Decision"},
		}})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, body["error"], "deadline")
}

func TestSubmitPicksRejectedOnceLive(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	user := seedUser(t, db, "joe", false, false)
	event := seedEvent(t, db, "UFC 322", -2*time.Hour, -time.Hour, 1)

	resp, _ := doJSON(t, app, "POST", "/api/events/"+event.ID+"/picks", user.ID,
		map[string]interface{}{"picks": []map[string]interface{}{
			{"fight_id": event.Fights[0].ID, "predicted_winner": 1, "predicted_method": "Decision"},
		}})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestSubmitPicksRejectedAfterAnyResult(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	user := seedUser(t, db, "joe", false, false)
	event := seedEvent(t, db, "UFC 323", time.Hour, 2*time.Hour, 2)

	require.NoError(t, db.Model(&models.Fight{}).
		Where("id = ?", event.Fights[0].ID).
		Updates(map[string]interface{}{"is_completed": true, "winner": 1, "method": "Decision"}).Error)

	resp, _ := doJSON(t, app, "POST", "/api/events/"+event.ID+"/picks", user.ID,
		map[string]interface{}{"picks": []map[string]interface{}{
			{"fight_id": event.Fights[1].ID, "predicted_winner": 1, "predicted_method": "Decision"},
		}})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestResubmissionReplacesPriorPicks(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	user := seedUser(t, db, "joe", false, false)
	event := seedEvent(t, db, "UFC 324", time.Hour, 2*time.Hour, 2)

	submitPicks(t, app, event, user.ID, []map[string]interface{}{
		{"fight_id": event.Fights[0].ID, "predicted_winner": 1, "predicted_method": "KO/TKO", "predicted_round": 1},
		{"fight_id": event.Fights[1].ID, "predicted_winner": 2, "predicted_method": "Decision"},
	})
	// Resubmission covers only the first fight with a different prediction; the
	// stale second pick must not survive.
	submitPicks(t, app, event, user.ID, []map[string]interface{}{
		{"fight_id": event.Fights[0].ID, "predicted_winner": 2, "predicted_method": "Submission", "predicted_round": 3},
	})

	set := getPickSet(t, db, user.ID, event.ID)
	require.Len(t, set.Picks, 1)
	assert.Equal(t, event.Fights[0].ID, set.Picks[0].FightID)
	assert.Equal(t, 2, set.Picks[0].PredictedWinner)
	assert.Equal(t, models.MethodSubmission, set.Picks[0].PredictedMethod)
	assert.Equal(t, 1, set.TotalPicks)
	assert.Equal(t, models.PickSetStatusSubmitted, set.Status)

	// Still exactly one pick set per user per event.
	var count int64
	db.Model(&models.PickSet{}).Where("user_id = ? AND event_id = ?", user.ID, event.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestMyEventPicks(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	user := seedUser(t, db, "joe", false, false)
	other := seedUser(t, db, "amy", false, false)
	event := seedEvent(t, db, "UFC 325", time.Hour, 2*time.Hour, 1)

	submitPicks(t, app, event, user.ID, []map[string]interface{}{
		{"fight_id": event.Fights[0].ID, "predicted_winner": 1, "predicted_method": "Decision"},
	})

	resp, body := doJSON(t, app, "GET", "/api/events/"+event.ID+"/picks/me", user.ID, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, user.ID, body["user_id"])

	resp, _ = doJSON(t, app, "GET", "/api/events/"+event.ID+"/picks/me", other.ID, nil)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestEventPicksHiddenWhileWindowOpen(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	admin := seedUser(t, db, "admin", true, true)
	user := seedUser(t, db, "joe", false, false)
	event := seedEvent(t, db, "UFC 326", time.Hour, 2*time.Hour, 1)

	submitPicks(t, app, event, user.ID, []map[string]interface{}{
		{"fight_id": event.Fights[0].ID, "predicted_winner": 1, "predicted_method": "Decision"},
	})

	// Deadline is still in the future: participants are blocked, admins are not.
	resp, _ := doJSON(t, app, "GET", "/api/events/"+event.ID+"/picks", user.ID, nil)
	assert.Equal(t, 403, resp.StatusCode)

	resp, body := doJSON(t, app, "GET", "/api/events/"+event.ID+"/picks", admin.ID, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, body["pick_sets"], 1)
}

func TestEventPicksVisibleToParticipantsAfterDeadline(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	user := seedUser(t, db, "joe", false, false)
	outsider := seedUser(t, db, "amy", false, false)
	event := seedEvent(t, db, "UFC 327", time.Hour, 2*time.Hour, 1)

	submitPicks(t, app, event, user.ID, []map[string]interface{}{
		{"fight_id": event.Fights[0].ID, "predicted_winner": 1, "predicted_method": "Decision"},
	})
	require.NoError(t, db.Model(&models.Event{}).
		Where("id = ?", event.ID).
		Update("pick_deadline", time.Now().Add(-time.Minute)).Error)

	resp, _ := doJSON(t, app, "GET", "/api/events/"+event.ID+"/picks", user.ID, nil)
	assert.Equal(t, 200, resp.StatusCode)

	// Accounts with no picks on the event still cannot browse them.
	resp, _ = doJSON(t, app, "GET", "/api/events/"+event.ID+"/picks", outsider.ID, nil)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestMyPicksPagination(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	user := seedUser(t, db, "joe", false, false)
	for i := 0; i < 3; i++ {
		event := seedEvent(t, db, "UFC 33"+string(rune('0'+i)), time.Hour, time.Duration(i+2)*time.Hour, 1)
		submitPicks(t, app, event, user.ID, []map[string]interface{}{
			{"fight_id": event.Fights[0].ID, "predicted_winner": 1, "predicted_method": "Decision"},
		})
	}

	resp, body := doJSON(t, app, "GET", "/api/picks/me?page=1&limit=2", user.ID, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, body["pick_sets"], 2)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["total_pages"])

	// Preloaded relations are present, unpreloaded ones are omitted rather
	// than serialized as empty objects.
	set := body["pick_sets"].([]interface{})[0].(map[string]interface{})
	_, hasEvent := set["event"]
	_, hasUser := set["user"]
	assert.True(t, hasEvent)
	assert.False(t, hasUser)
}
