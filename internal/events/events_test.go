package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ohmyhungrygod/gameclient/internal/game"
)

func TestParseOrderStarted(t *testing.T) {
	env := Envelope{
		Type: TypeOrderStarted,
		Data: json.RawMessage(`{
			"orderId": "a2e8ba6a-6f5c-4c2a-9a3e-0f0a57f1a111",
			"orderNumber": 3,
			"required": {"banana": 2, "peach": 1},
			"endsAt": "2026-03-01T12:00:30Z",
			"durationSeconds": 30
		}`),
	}

	payload, err := Parse(env)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, ok := payload.(OrderStarted)
	if !ok {
		t.Fatalf("payload type = %T, want OrderStarted", payload)
	}
	if p.OrderNumber != 3 {
		t.Errorf("orderNumber = %d, want 3", p.OrderNumber)
	}
	if p.Required[game.KindBanana] != 2 || p.Required[game.KindPeach] != 1 {
		t.Errorf("required = %v", p.Required)
	}
}

func TestParseRoomSnapshotIntegerEnums(t *testing.T) {
	env := Envelope{
		Type: TypeRoomSnapshot,
		Data: json.RawMessage(`{
			"roomId": "b2e8ba6a-6f5c-4c2a-9a3e-0f0a57f1a222",
			"state": 3,
			"mood": 5,
			"orderIndex": 2,
			"currentOrder": {
				"orderId": "c2e8ba6a-6f5c-4c2a-9a3e-0f0a57f1a333",
				"required": {"coconut": 1},
				"submitted": {"coconut": 0},
				"startsAt": "2026-03-01T12:00:00Z",
				"endsAt": "2026-03-01T12:00:30Z",
				"status": 0
			},
			"players": [
				{"playerId": "d2e8ba6a-6f5c-4c2a-9a3e-0f0a57f1a444", "name": "ana", "isConnected": true, "isReady": true}
			]
		}`),
	}

	payload, err := Parse(env)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := payload.(RoomSnapshot)
	if p.Phase != game.PhaseInGame {
		t.Errorf("phase = %s, want InGame", p.Phase)
	}
	if p.Mood != 5 {
		t.Errorf("mood = %d, want 5", p.Mood)
	}
	if p.CurrentOrder == nil || p.CurrentOrder.Status != game.OrderActive {
		t.Errorf("currentOrder = %+v", p.CurrentOrder)
	}
	if len(p.Players) != 1 || !p.Players[0].Ready {
		t.Errorf("players = %+v", p.Players)
	}
}

func TestParseRoomStateUpdated(t *testing.T) {
	env := Envelope{
		Type: TypeRoomStateUpdated,
		Data: json.RawMessage(`{
			"roomId": "b2e8ba6a-6f5c-4c2a-9a3e-0f0a57f1a222",
			"state": 1,
			"players": [
				{"playerId": "d2e8ba6a-6f5c-4c2a-9a3e-0f0a57f1a444", "name": "ana", "isConnected": true, "isReady": false},
				{"playerId": "e2e8ba6a-6f5c-4c2a-9a3e-0f0a57f1a555", "name": "bo", "isConnected": true, "isReady": true}
			],
			"connectedCount": 2,
			"readyCount": 1
		}`),
	}

	payload, err := Parse(env)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, ok := payload.(RoomStateUpdated)
	if !ok {
		t.Fatalf("payload type = %T, want RoomStateUpdated", payload)
	}
	if p.Phase != game.PhaseLobby {
		t.Errorf("phase = %s, want Lobby", p.Phase)
	}
	if len(p.Players) != 2 || p.ConnectedCount != 2 || p.ReadyCount != 1 {
		t.Errorf("roster = %+v", p)
	}
}

func TestParseOrderResolved(t *testing.T) {
	env := Envelope{
		Type: TypeOrderResolved,
		Data: json.RawMessage(`{
			"orderId": "a2e8ba6a-6f5c-4c2a-9a3e-0f0a57f1a111",
			"result": 2,
			"required": {"banana": 1},
			"submitted": {"banana": 3},
			"newMood": 2
		}`),
	}

	payload, err := Parse(env)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := payload.(OrderResolved)
	if p.Status != game.OrderFailOver {
		t.Errorf("status = %s, want FailOver", p.Status)
	}
	if p.Submitted[game.KindBanana] != 3 {
		t.Errorf("submitted = %v", p.Submitted)
	}
}

func TestParseUnknownType(t *testing.T) {
	_, err := Parse(Envelope{Type: "Telemetry", Data: json.RawMessage(`{}`)})
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}

func TestParseMalformedPayload(t *testing.T) {
	_, err := Parse(Envelope{Type: TypeOrderStarted, Data: json.RawMessage(`{"orderId": 42}`)})
	if err == nil {
		t.Fatal("malformed payload must not parse")
	}
}
