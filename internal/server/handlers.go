package server

import (
	"errors"
	"fmt"

	"galaxy-wars/internal/game"
	"galaxy-wars/internal/network"
)

const (
	msgWelcome          = "Connected successfully!"
	msgAlreadyConnected = "Already connected."
	msgNotAuthenticated = "Client not authenticated. Please send ConnectRequest first."
	msgInvalidJSON      = "Invalid JSON format."
	msgRateLimited      = "rate limit exceeded"
)

// processMessage decodes one inbound line and dispatches it
func (s *Server) processMessage(session *Session, line []byte) {
	if !session.allow() {
		s.sendError(session, msgRateLimited)
		return
	}

	frame, err := network.DecodeFrame(line)
	if err != nil {
		s.logger.Warn("Malformed frame from %s: %v", session.ID, err)
		s.sendError(session, msgInvalidJSON)
		return
	}
	s.logger.Debug("Received message from %s: %s", session.ID, frame.Type)

	if frame.Type != network.MsgConnectRequest && session.PlayerID() == "" {
		s.sendError(session, msgNotAuthenticated)
		return
	}

	payload, err := frame.Decode()
	if err != nil {
		if errors.Is(err, network.ErrUnsupportedType) {
			s.sendError(session, "Unhandled message type: %s", frame.Type)
			return
		}
		s.logger.Warn("Invalid payload from %s: %v", session.ID, err)
		s.sendError(session, "Invalid %s payload.", frame.Type)
		return
	}

	switch msg := payload.(type) {
	case *network.ConnectRequest:
		s.handleConnectRequest(session, msg)
	case *network.SendUnits:
		s.handleSendUnits(session, msg)
	default:
		s.sendError(session, "Unhandled message type: %s", frame.Type)
	}
}

// handleConnectRequest registers a player for a session that has none
func (s *Server) handleConnectRequest(session *Session, msg *network.ConnectRequest) {
	if playerID := session.PlayerID(); playerID != "" {
		s.send(session, network.ConnectResponse{
			Status:   network.StatusError,
			PlayerID: playerID,
			Message:  msgAlreadyConnected,
		})
		return
	}

	player, err := s.engine.Join(msg.PlayerName, func(p game.Player) {
		session.bind(p.ID)
		s.send(session, network.ConnectResponse{
			Status:   network.StatusSuccess,
			PlayerID: p.ID,
			Message:  msgWelcome,
		})
	})
	if err != nil {
		s.logger.Info("Connect rejected for %s: %v", session.ID, err)
		s.send(session, network.ConnectResponse{
			Status:  network.StatusError,
			Message: fmt.Sprintf("Connect failed: %v", err),
		})
		return
	}

	s.logger.Info("Player %s (ID: %s) connected on %s", player.Name, player.ID, session.ID)
}

// handleSendUnits launches a fleet on behalf of the session's player
func (s *Server) handleSendUnits(session *Session, msg *network.SendUnits) {
	playerID := session.PlayerID()
	s.logger.Debug("Player %s wants to send %d%% units from %d to %d",
		playerID, msg.Percentage, msg.FromPlanetID, msg.ToPlanetID)

	_, err := s.engine.SendUnits(playerID, msg.FromPlanetID, msg.ToPlanetID, msg.Percentage)
	if err != nil {
		s.logger.Debug("SendUnits from %s rejected: %v", playerID, err)
		s.sendError(session, "Invalid SendUnits request: %v", err)
	}
}

// send enqueues a reply to one session, closing it if it cannot keep up
func (s *Server) send(session *Session, p network.Payload) {
	err := session.Send(p)
	switch {
	case err == nil:
		s.logger.Debug("Sending message to %s: %s", session.ID, p.MessageType())
	case errors.Is(err, ErrBackpressure):
		s.logger.Warn("Session %s is not keeping up, disconnecting", session.ID)
		session.Close()
	case errors.Is(err, ErrSessionClosed):
	default:
		s.logger.Error("Failed to send %s to %s: %v", p.MessageType(), session.ID, err)
	}
}

func (s *Server) sendError(session *Session, format string, args ...interface{}) {
	s.send(session, network.NewError(format, args...))
}
