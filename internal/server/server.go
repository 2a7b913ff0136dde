package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/cardroom/tourneyd/internal/game"
	"github.com/cardroom/tourneyd/internal/session"
)

// Server is the websocket gateway onto the session manager. Framing stays
// thin here; game behaviour lives in the session and game packages.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	manager  *session.Manager
	logger   *log.Logger

	mu          sync.RWMutex
	connections map[*Connection]bool
	byPlayer    map[int64]*Connection

	register   chan *Connection
	unregister chan *Connection
	ctx        context.Context
	cancel     context.CancelFunc
	httpServer *http.Server
}

// NewServer creates the gateway listening on addr.
func NewServer(addr string, manager *session.Manager, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Origin checks belong to the deployment's proxy.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		manager:     manager,
		logger:      logger.WithPrefix("server"),
		connections: make(map[*Connection]bool),
		byPlayer:    make(map[int64]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs the gateway until Stop is called.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	s.logger.Info("starting websocket gateway", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the gateway down.
func (s *Server) Stop() error {
	s.cancel()
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			s.byPlayer[conn.PlayerID()] = conn
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "player", conn.PlayerID(), "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				if s.byPlayer[conn.PlayerID()] == conn {
					delete(s.byPlayer, conn.PlayerID())
				}
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()

			if gameID := conn.GameID(); gameID != "" {
				if g, err := s.manager.Get(gameID); err == nil {
					g.Disconnect(conn.PlayerID())
				}
			}
			s.logger.Info("client disconnected", "player", conn.PlayerID(), "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(r.URL.Query().Get("player"), 10, 64)
	if err != nil || playerID <= 0 {
		http.Error(w, "player query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, playerID, s.logger, s)
	s.register <- client
	client.Start()
	_ = client.Send(&Message{Type: MsgWelcome})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleMessage dispatches one inbound client message.
func (s *Server) handleMessage(c *Connection, msg *Message) {
	var err error
	switch msg.Type {
	case MsgCreateGame:
		err = s.handleCreate(c, msg)
	case MsgJoinGame:
		err = s.handleJoin(c, msg)
	case MsgLeaveGame:
		err = s.withGame(msg, func(g *session.Game) error { return g.Leave(c.PlayerID()) })
	case MsgAddBot:
		err = s.handleAddBot(c, msg)
	case MsgStartGame:
		err = s.handleStart(c, msg)
	case MsgPauseGame:
		err = s.withGame(msg, func(g *session.Game) error { return g.Pause(c.PlayerID()) })
	case MsgResumeGame:
		err = s.withGame(msg, func(g *session.Game) error { return g.Resume(c.PlayerID()) })
	case MsgCancelGame:
		err = s.withGame(msg, func(g *session.Game) error { return g.Cancel(c.PlayerID()) })
	case MsgAction:
		err = s.handleAction(c, msg)
	case MsgRebuy:
		err = s.handleOffer(c, msg, true)
	case MsgAddon:
		err = s.handleOffer(c, msg, false)
	case MsgResync:
		err = s.handleResync(c, msg)
	case MsgListGames:
		err = c.Send(&Message{Type: MsgGames, Payload: mustJSON(s.manager.List())})
	case MsgGetState:
		err = s.handleGetState(c, msg)
	default:
		c.sendError("unknown message type " + msg.Type)
		return
	}
	if err != nil {
		c.sendError(err.Error())
	}
}

func (s *Server) withGame(msg *Message, fn func(*session.Game) error) error {
	g, err := s.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	return fn(g)
}

func (s *Server) handleCreate(c *Connection, msg *Message) error {
	var payload CreateGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	g, err := s.manager.Create(c.PlayerID(), payload.Config)
	if err != nil {
		return err
	}
	g.Bus().SetBroadcast(s.broadcastStored)
	s.installPrompt(g)
	return c.Send(&Message{Type: MsgGameCreated, GameID: g.ID})
}

func (s *Server) handleJoin(c *Connection, msg *Message) error {
	var payload JoinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	g, err := s.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	token, err := g.Join(c.PlayerID(), payload.Name)
	if err != nil {
		return err
	}
	c.SetGameID(g.ID)
	return c.Send(&Message{Type: MsgJoined, GameID: g.ID, Payload: mustJSON(map[string]string{"token": token})})
}

func (s *Server) handleAddBot(c *Connection, msg *Message) error {
	var payload AddBotPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	g, err := s.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	id, err := g.AddBot(c.PlayerID(), payload.Name)
	if err != nil {
		return err
	}
	return c.Send(&Message{Type: MsgBotAdded, GameID: g.ID, Payload: mustJSON(map[string]int64{"player_id": id})})
}

func (s *Server) handleStart(c *Connection, msg *Message) error {
	g, err := s.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	// The prompt callback must be in place before the director launches, or
	// the first human to act is never asked.
	s.installPrompt(g)
	return s.manager.StartGame(g.ID, c.PlayerID())
}

func (s *Server) installPrompt(g *session.Game) {
	gameID := g.ID
	g.SetPrompt(func(p session.Prompt) {
		s.sendPrompt(gameID, p)
	})
}

func (s *Server) handleAction(c *Connection, msg *Message) error {
	var payload ActionPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	g, err := s.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	// Unknown action names fold; the session clamps everything else.
	actionType, _ := parseActionType(payload.Action)
	_, err = g.SubmitAction(c.PlayerID(), game.Action{Type: actionType, Amount: payload.Amount})
	return err
}

func (s *Server) handleOffer(c *Connection, msg *Message, rebuy bool) error {
	var payload OfferPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	g, err := s.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	if rebuy {
		return g.RespondRebuy(c.PlayerID(), payload.Accept)
	}
	return g.RespondAddon(c.PlayerID(), payload.Accept)
}

// handleResync reconnects a player: marks them online, replays events they
// missed and resends any outstanding action prompt.
func (s *Server) handleResync(c *Connection, msg *Message) error {
	var payload ResyncPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	g, err := s.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	missed, err := g.Connect(c.PlayerID(), payload.SinceSeq)
	if err != nil {
		return err
	}
	c.SetGameID(g.ID)
	for _, st := range missed {
		if err := c.Send(&Message{Type: MsgEvent, GameID: g.ID, Payload: mustJSON(st)}); err != nil {
			return err
		}
	}
	if router := g.Router(); router != nil {
		if prompt, ok := router.PendingPrompt(c.PlayerID()); ok {
			return c.Send(&Message{Type: MsgPrompt, GameID: g.ID, Payload: mustJSON(prompt)})
		}
	}
	return nil
}

func (s *Server) handleGetState(c *Connection, msg *Message) error {
	g, err := s.manager.Get(msg.GameID)
	if err != nil {
		return err
	}
	proj, err := g.Projection(c.PlayerID())
	if err != nil {
		return err
	}
	return c.Send(&Message{Type: MsgState, GameID: g.ID, Payload: mustJSON(proj)})
}

// broadcastStored fans one stored event out to every connection following
// the game.
func (s *Server) broadcastStored(st session.Stored) {
	msg := &Message{Type: MsgEvent, GameID: st.GameID, Payload: mustJSON(st)}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if conn.GameID() == st.GameID {
			_ = conn.Send(msg)
		}
	}
}

// sendPrompt delivers an action request to the player's connection.
func (s *Server) sendPrompt(gameID string, p session.Prompt) {
	s.mu.RLock()
	conn := s.byPlayer[p.PlayerID]
	s.mu.RUnlock()
	if conn == nil {
		return
	}
	_ = conn.Send(&Message{Type: MsgPrompt, GameID: gameID, Payload: mustJSON(p)})
}
