// START OF FILE virada/internal/services/gameroom/manager.go
package gameroom

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"virada/internal/game/match"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var errManagerStopped = errors.New("room manager is shutting down")

// RoomManager (o ator) gerencia o ciclo de vida de todas as salas ativas neste processo.
type RoomManager struct {
	rooms           map[string]*GameRoom
	requestCh       chan interface{}
	applier         *Applier
	opts            Options
	log             logrus.FieldLogger
	cleanupInterval time.Duration
	stopped         chan struct{}
	runCtx          context.Context
	wg              sync.WaitGroup
}

func NewRoomManager(applier *Applier, opts Options) *RoomManager {
	opts = opts.withDefaults()
	return &RoomManager{
		rooms:           make(map[string]*GameRoom),
		requestCh:       make(chan interface{}),
		applier:         applier,
		opts:            opts,
		log:             opts.Logger.WithField("component", "RoomManager"),
		cleanupInterval: time.Minute,
		stopped:         make(chan struct{}),
	}
}

// --- Mensagens para o Ator RoomManager ---
type registerRoomRequest struct {
	room  match.Room
	reply chan *GameRoom
}
type getRoomRequest struct {
	roomID string
	reply  chan *GameRoom
}
type removeRoomRequest struct {
	roomID string
}
type listRoomsRequest struct {
	reply chan []string
}

// --- APIs Públicas do Ator ---

// CreateRoom registra a sala (ou reaproveita a existente) e inicializa a partida.
func (rm *RoomManager) CreateRoom(ctx context.Context, room match.Room) (*GameRoom, *match.State, error) {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	gr, err := rm.register(ctx, room)
	if err != nil {
		return nil, nil, err
	}

	st, err := gr.InitializeMatch(ctx)
	if err != nil {
		if errors.Is(err, match.ErrInvalidConfiguration) {
			rm.remove(gr.ID)
			_ = gr.Close()
		}
		return nil, nil, err
	}
	return gr, st, nil
}

// GetRoom devolve a sala ativa neste processo, ou nil.
func (rm *RoomManager) GetRoom(roomID string) *GameRoom {
	reply := make(chan *GameRoom, 1)
	select {
	case rm.requestCh <- getRoomRequest{roomID: roomID, reply: reply}:
		return <-reply
	case <-rm.stopped:
		return nil
	}
}

// Lookup devolve a sala local ou passa a acompanhar uma partida que já está no store
// (criada por outra instância). ErrRoomGone se ela não existe em lugar nenhum;
// partidas encerradas recusam ações com ErrInvalidPhase.
func (rm *RoomManager) Lookup(ctx context.Context, roomID string) (*GameRoom, error) {
	if gr := rm.GetRoom(roomID); gr != nil && !gr.IsFinished() {
		return gr, nil
	}
	st, _, err := rm.applier.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if st.Phase.IsTerminal() {
		return nil, fmt.Errorf("%w: match %s is over", match.ErrInvalidPhase, roomID)
	}
	return rm.register(ctx, roomFromState(st))
}

// Load devolve o retrato da sala local ou, se ela não está neste processo, o do store.
func (rm *RoomManager) Load(ctx context.Context, roomID string) (*match.State, error) {
	if gr := rm.GetRoom(roomID); gr != nil && !gr.IsFinished() {
		if st := gr.Snapshot(); st != nil {
			return st, nil
		}
	}
	st, _, err := rm.applier.Load(ctx, roomID)
	return st, err
}

// RoomChanged repassa a nova lista de participantes à partida. Uma partida encerrada
// não tem mais controlador; se a sala dela foi desmontada, o documento é apagado aqui.
func (rm *RoomManager) RoomChanged(ctx context.Context, roomID string, room match.Room) error {
	gr, err := rm.Lookup(ctx, roomID)
	if errors.Is(err, match.ErrInvalidPhase) {
		if len(room.Participants) > 0 && room.Humans() > 0 {
			return nil
		}
		if local := rm.GetRoom(roomID); local != nil {
			_ = local.Close()
			rm.remove(roomID)
		}
		rm.log.WithField("match", roomID).Info("[RoomManager] Room of a finished match torn down, deleting document.")
		return rm.applier.Delete(ctx, roomID)
	}
	if err != nil {
		return err
	}
	return gr.RoomChanged(ctx, room)
}

// ActiveRooms lista as salas que este processo acompanha.
func (rm *RoomManager) ActiveRooms() []string {
	reply := make(chan []string, 1)
	select {
	case rm.requestCh <- listRoomsRequest{reply: reply}:
		return <-reply
	case <-rm.stopped:
		return nil
	}
}

func (rm *RoomManager) register(ctx context.Context, room match.Room) (*GameRoom, error) {
	reply := make(chan *GameRoom, 1)
	select {
	case rm.requestCh <- registerRoomRequest{room: room, reply: reply}:
	case <-rm.stopped:
		return nil, errManagerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-reply, nil
}

func (rm *RoomManager) remove(roomID string) {
	select {
	case rm.requestCh <- removeRoomRequest{roomID: roomID}:
	case <-rm.stopped:
	}
}

// Run inicia o loop principal do ator RoomManager. Ao fim de ctx fecha todas as salas.
func (rm *RoomManager) Run(ctx context.Context) error {
	rm.log.Info("[RoomManager] Actor started.")
	rm.runCtx = ctx
	cleanupTicker := time.NewTicker(rm.cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case msg := <-rm.requestCh:
			switch req := msg.(type) {
			case registerRoomRequest:
				if existing, ok := rm.rooms[req.room.ID]; ok && !existing.IsFinished() {
					req.reply <- existing
					continue
				}
				room := NewGameRoom(req.room.ID, req.room, rm.applier, rm.opts)
				rm.rooms[room.ID] = room
				rm.wg.Add(1)
				go func() {
					defer rm.wg.Done()
					if err := room.Run(rm.runCtx); err != nil {
						rm.log.WithError(err).WithField("match", room.ID).Error("[RoomManager] Room stopped with error")
					}
				}()
				req.reply <- room

			case getRoomRequest:
				req.reply <- rm.rooms[req.roomID]

			case removeRoomRequest:
				delete(rm.rooms, req.roomID)

			case listRoomsRequest:
				ids := make([]string, 0, len(rm.rooms))
				for id := range rm.rooms {
					ids = append(ids, id)
				}
				req.reply <- ids
			}

		case <-cleanupTicker.C:
			rm.cleanup()

		case <-ctx.Done():
			rm.log.Info("[RoomManager] Shutting down, closing rooms.")
			close(rm.stopped)
			for id, room := range rm.rooms {
				_ = room.Close()
				delete(rm.rooms, id)
			}
			rm.wg.Wait()
			return nil
		}
	}
}

func (rm *RoomManager) cleanup() {
	for id, room := range rm.rooms {
		if room.IsFinished() {
			delete(rm.rooms, id)
			rm.log.WithField("match", id).Info("[RoomManager] Cleaned up finished room")
		}
	}
}

// roomFromState reconstrói a sala a partir do documento, para acompanhar partidas de outras instâncias.
func roomFromState(st *match.State) match.Room {
	room := match.Room{ID: st.MatchID, HostID: st.HostID, RequiredPlayers: len(st.Order)}
	for _, id := range st.Order {
		p := st.Players[id]
		room.Participants = append(room.Participants, match.Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Style:       p.Style,
			IsBot:       p.IsBot,
		})
	}
	return room
}
