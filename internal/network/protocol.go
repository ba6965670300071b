// Package network handles all network communication protocols
package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType identifies the payload carried by an envelope. The integer
// values are part of the wire contract.
type MessageType int

const (
	MsgConnectRequest MessageType = iota
	MsgConnectResponse
	MsgGameStart
	MsgSendUnits
	MsgPlanetUpdate
	MsgFleetLaunched
	MsgFleetArrived // reserved, never sent
	MsgGameOver
	MsgError
	MsgPlayerDisconnected
)

var messageTypeNames = map[MessageType]string{
	MsgConnectRequest:     "ConnectRequest",
	MsgConnectResponse:    "ConnectResponse",
	MsgGameStart:          "GameStart",
	MsgSendUnits:          "SendUnits",
	MsgPlanetUpdate:       "PlanetUpdate",
	MsgFleetLaunched:      "FleetLaunched",
	MsgFleetArrived:       "FleetArrived",
	MsgGameOver:           "GameOver",
	MsgError:              "Error",
	MsgPlayerDisconnected: "PlayerDisconnected",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(%d)", int(t))
}

// Decoding errors
var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnsupportedType  = errors.New("unsupported message type")
)

// Connect response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the outer JSON object of every frame. Payload holds the
// JSON-encoded message body as a string.
type Envelope struct {
	Type    MessageType `json:"Type"`
	Payload string      `json:"Payload"`
}

// Payload is implemented by every message body
type Payload interface {
	MessageType() MessageType
}

// ConnectRequest asks the server to register a player
type ConnectRequest struct {
	PlayerName string `json:"playerName"`
}

// ConnectResponse answers a ConnectRequest
type ConnectResponse struct {
	Status   string `json:"status"`
	PlayerID string `json:"playerId"`
	Message  string `json:"message"`
}

// GameStart is broadcast once when the game begins
type GameStart struct {
	Map     MapData      `json:"map"`
	Players []PlayerData `json:"players"`
}

// MapData describes the playing field
type MapData struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Planets []PlanetData `json:"planets"`
}

// SendUnits orders a fleet launch
type SendUnits struct {
	FromPlanetID int `json:"fromPlanetId"`
	ToPlanetID   int `json:"toPlanetId"`
	Percentage   int `json:"percentage"`
}

// PlanetUpdate carries snapshots of changed planets
type PlanetUpdate struct {
	Updates []PlanetData `json:"updates"`
}

// FleetLaunched announces a fleet in flight
type FleetLaunched struct {
	FleetID              string    `json:"fleetId"`
	OwnerID              string    `json:"ownerId"`
	FromPlanetID         int       `json:"fromPlanetId"`
	ToPlanetID           int       `json:"toPlanetId"`
	UnitCount            int       `json:"unitCount"`
	StartTime            time.Time `json:"startTime"`
	EstimatedArrivalTime time.Time `json:"estimatedArrivalTime"`
}

// GameOver announces the end of the game. WinnerID is null on stalemate.
type GameOver struct {
	WinnerID *string `json:"winnerId"`
	Reason   string  `json:"reason"`
}

// ErrorMessage reports a rejected request to a single client
type ErrorMessage struct {
	Message string `json:"message"`
}

// PlayerDisconnected announces that a player's connection closed
type PlayerDisconnected struct {
	PlayerID string `json:"playerId"`
}

// PlanetData is the wire form of a planet. OwnerID is null for neutral planets.
type PlanetData struct {
	PlanetID       int     `json:"planetId"`
	X              int     `json:"x"`
	Y              int     `json:"y"`
	Size           int     `json:"size"`
	OwnerID        *string `json:"ownerId"`
	Units          int     `json:"units"`
	ProductionRate int     `json:"productionRate"`
}

// PlayerData is the wire form of a player
type PlayerData struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Color    string `json:"color"`
}

func (ConnectRequest) MessageType() MessageType     { return MsgConnectRequest }
func (ConnectResponse) MessageType() MessageType    { return MsgConnectResponse }
func (GameStart) MessageType() MessageType          { return MsgGameStart }
func (SendUnits) MessageType() MessageType          { return MsgSendUnits }
func (PlanetUpdate) MessageType() MessageType       { return MsgPlanetUpdate }
func (FleetLaunched) MessageType() MessageType      { return MsgFleetLaunched }
func (GameOver) MessageType() MessageType           { return MsgGameOver }
func (ErrorMessage) MessageType() MessageType       { return MsgError }
func (PlayerDisconnected) MessageType() MessageType { return MsgPlayerDisconnected }

// payloadFactories maps each concrete message kind to a fresh value for decoding
var payloadFactories = map[MessageType]func() Payload{
	MsgConnectRequest:     func() Payload { return &ConnectRequest{} },
	MsgConnectResponse:    func() Payload { return &ConnectResponse{} },
	MsgGameStart:          func() Payload { return &GameStart{} },
	MsgSendUnits:          func() Payload { return &SendUnits{} },
	MsgPlanetUpdate:       func() Payload { return &PlanetUpdate{} },
	MsgFleetLaunched:      func() Payload { return &FleetLaunched{} },
	MsgGameOver:           func() Payload { return &GameOver{} },
	MsgError:              func() Payload { return &ErrorMessage{} },
	MsgPlayerDisconnected: func() Payload { return &PlayerDisconnected{} },
}

// Frame is a decoded envelope whose payload has not been parsed yet
type Frame struct {
	Type MessageType
	Raw  []byte
}

// DecodeFrame parses one line into a Frame. Trailing whitespace, including
// the newline delimiter, is ignored.
func DecodeFrame(line []byte) (Frame, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Frame{}, fmt.Errorf("%w: empty line", ErrMalformedFrame)
	}

	var env struct {
		Type    *MessageType `json:"Type"`
		Payload *string      `json:"Payload"`
	}
	if err := json.Unmarshal(line, &env); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == nil {
		return Frame{}, fmt.Errorf("%w: missing Type", ErrMalformedFrame)
	}

	raw := []byte("{}")
	if env.Payload != nil && *env.Payload != "" {
		raw = []byte(*env.Payload)
	}
	return Frame{Type: *env.Type, Raw: raw}, nil
}

// Decode parses the nested payload into its typed value. The result is a
// pointer to one of the payload structs.
func (f Frame) Decode() (Payload, error) {
	factory, ok := payloadFactories[f.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, f.Type)
	}
	p := factory()
	if err := json.Unmarshal(f.Raw, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, f.Type, err)
	}
	return p, nil
}

// Decode parses a full line into a typed payload
func Decode(line []byte) (Payload, error) {
	frame, err := DecodeFrame(line)
	if err != nil {
		return nil, err
	}
	return frame.Decode()
}

// Encode serializes a payload into one newline-terminated frame
func Encode(p Payload) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.MessageType(), err)
	}
	data, err := json.Marshal(Envelope{Type: p.MessageType(), Payload: string(body)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return append(data, '\n'), nil
}

// NewError builds an Error payload
func NewError(format string, args ...interface{}) ErrorMessage {
	return ErrorMessage{Message: fmt.Sprintf(format, args...)}
}
