package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"galaxy-wars/internal/game"
)

func strPtr(s string) *string { return &s }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := []Payload{
		ConnectRequest{PlayerName: "Alice"},
		ConnectResponse{Status: StatusSuccess, PlayerID: "p-1", Message: "Welcome, Alice!"},
		GameStart{
			Map: MapData{Width: 800, Height: 600, Planets: []PlanetData{
				{PlanetID: 1, X: 100, Y: 100, Size: 30, OwnerID: strPtr("p-1"), Units: 50, ProductionRate: 2},
				{PlanetID: 3, X: 400, Y: 300, Size: 50, Units: 10, ProductionRate: 3},
			}},
			Players: []PlayerData{{PlayerID: "p-1", Name: "Alice", Color: "red"}},
		},
		SendUnits{FromPlanetID: 1, ToPlanetID: 3, Percentage: 50},
		PlanetUpdate{Updates: []PlanetData{{PlanetID: 2, OwnerID: strPtr("p-2"), Units: 7}}},
		FleetLaunched{
			FleetID:              "f-1",
			OwnerID:              "p-1",
			FromPlanetID:         1,
			ToPlanetID:           2,
			UnitCount:            25,
			StartTime:            start,
			EstimatedArrivalTime: start.Add(7211 * time.Millisecond),
		},
		GameOver{WinnerID: strPtr("p-1"), Reason: "Player Alice has conquered the galaxy!"},
		GameOver{Reason: game.StalemateReason},
		ErrorMessage{Message: "Not your planet"},
		PlayerDisconnected{PlayerID: "p-2"},
	}

	for _, want := range cases {
		t.Run(want.MessageType().String(), func(t *testing.T) {
			line, err := Encode(want)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.HasSuffix(line, []byte("\n")) || bytes.Count(line, []byte("\n")) != 1 {
				t.Fatalf("frame must be exactly one line, got %q", line)
			}

			got, err := Decode(line)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.MessageType() != want.MessageType() {
				t.Fatalf("type = %s, want %s", got.MessageType(), want.MessageType())
			}
			deref := reflect.ValueOf(got).Elem().Interface()
			if !reflect.DeepEqual(deref, want) {
				t.Errorf("round trip mismatch\n got: %#v\nwant: %#v", deref, want)
			}
		})
	}
}

func TestEncodeIsDoubleEncoded(t *testing.T) {
	line, err := Encode(SendUnits{FromPlanetID: 1, ToPlanetID: 2, Percentage: 50})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var env map[string]interface{}
	if err := json.Unmarshal(line, &env); err != nil {
		t.Fatalf("envelope is not JSON: %v", err)
	}
	if env["Type"] != float64(3) {
		t.Errorf("Type = %v, want 3", env["Type"])
	}
	payload, ok := env["Payload"].(string)
	if !ok {
		t.Fatalf("Payload must be a JSON string, got %T", env["Payload"])
	}

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	for _, key := range []string{"fromPlanetId", "toPlanetId", "percentage"} {
		if _, ok := body[key]; !ok {
			t.Errorf("payload missing %q: %s", key, payload)
		}
	}
}

func TestNullableFieldsEncodeAsNull(t *testing.T) {
	line, err := Encode(GameOver{Reason: game.StalemateReason})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if want := `{"winnerId":null,"reason":"stalemate"}`; env.Payload != want {
		t.Errorf("payload = %s, want %s", env.Payload, want)
	}

	line, err = Encode(PlanetUpdate{Updates: []PlanetData{{PlanetID: 3, Units: 10, ProductionRate: 3}}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Contains(line, []byte(`\"ownerId\":null`)) {
		t.Errorf("neutral planet must carry a null owner: %s", line)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"empty", "", ErrMalformedFrame},
		{"whitespace", "   \n", ErrMalformedFrame},
		{"not json", "hello", ErrMalformedFrame},
		{"truncated", `{"Type":3,"Payload":"{`, ErrMalformedFrame},
		{"missing type", `{"Payload":"{}"}`, ErrMalformedFrame},
		{"payload not a string", `{"Type":3,"Payload":{"percentage":5}}`, ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.line))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"bad nested json", `{"Type":3,"Payload":"{not json"}`, ErrMalformedPayload},
		{"wrong field type", `{"Type":3,"Payload":"{\"percentage\":\"half\"}"}`, ErrMalformedPayload},
		{"fractional int", `{"Type":3,"Payload":"{\"percentage\":50.5}"}`, ErrMalformedPayload},
		{"reserved type", `{"Type":6,"Payload":"{}"}`, ErrUnsupportedType},
		{"unknown type", `{"Type":42,"Payload":"{}"}`, ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeMissingPayloadIsEmptyObject(t *testing.T) {
	for _, line := range []string{`{"Type":0}`, `{"Type":0,"Payload":null}`, `{"Type":0,"Payload":""}`} {
		p, err := Decode([]byte(line))
		if err != nil {
			t.Fatalf("%s: %v", line, err)
		}
		req, ok := p.(*ConnectRequest)
		if !ok {
			t.Fatalf("%s: got %T", line, p)
		}
		if req.PlayerName != "" {
			t.Errorf("%s: name = %q, want empty", line, req.PlayerName)
		}
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	p, err := Decode([]byte(`{"Type":3,"Payload":"{\"fromPlanetId\":1,\"toPlanetId\":2,\"percentage\":10,\"extra\":true}","Other":1}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := &SendUnits{FromPlanetID: 1, ToPlanetID: 2, Percentage: 10}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("got %#v, want %#v", p, want)
	}
}

func TestMessageTypeString(t *testing.T) {
	if got := MsgPlayerDisconnected.String(); got != "PlayerDisconnected" {
		t.Errorf("String() = %q", got)
	}
	if got := MessageType(99).String(); got != "MessageType(99)" {
		t.Errorf("String() = %q", got)
	}
}
