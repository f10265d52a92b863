package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playsquare/gamerooms-backend/internal/entity"
	"github.com/playsquare/gamerooms-backend/internal/tictactoe"
)

type fakeUpstream struct {
	moves  []entity.Move
	resets []string
	leaves []string
}

func (that *fakeUpstream) SubmitMove(_ string, move entity.Move) error {
	that.moves = append(that.moves, move)
	return nil
}

func (that *fakeUpstream) ResetRoom(roomID string) error {
	that.resets = append(that.resets, roomID)
	return nil
}

func (that *fakeUpstream) LeaveRoom(roomID string) error {
	that.leaves = append(that.leaves, roomID)
	return nil
}

func intPtr(n int) *int {
	return &n
}

func TestMirror_Online(t *testing.T) {
	t.Run("Server broadcast is the only mutation source", func(t *testing.T) {
		// Given: an online mirror with a projected room
		upstream := &fakeUpstream{}
		m := NewOnline(upstream)
		room := entity.NewRoom("ABC234", "", entity.ModeClassic)
		require.NoError(t, m.Apply(ServerState{Room: room}))

		// When: a local move is applied
		require.NoError(t, m.Apply(LocalMove{Move: entity.Move{MacroIndex: 4}}))

		// Then: it went upstream and the local board is untouched
		require.Len(t, upstream.moves, 1)
		assert.Equal(t, 4, upstream.moves[0].MacroIndex)
		assert.Equal(t, tictactoe.ClassicBoard{}, m.Room().Board)
	})

	t.Run("Broadcast replaces the projection wholesale", func(t *testing.T) {
		// Given: an online mirror
		m := NewOnline(&fakeUpstream{})

		// When: an authoritative snapshot arrives
		room := entity.NewRoom("ABC234", "", entity.ModeClassic)
		room.Board[4] = tictactoe.PlayerX
		room.TurnIsX = false
		require.NoError(t, m.Apply(ServerState{Room: room}))

		// Then: the mirror reflects exactly the broadcast state
		assert.Equal(t, tictactoe.PlayerX, m.Room().Board[4])
		assert.False(t, m.Room().TurnIsX)
	})

	t.Run("Seat assignment is recorded", func(t *testing.T) {
		m := NewOnline(&fakeUpstream{})

		require.NoError(t, m.Apply(AssignSeat{Symbol: tictactoe.PlayerO}))

		assert.Equal(t, tictactoe.PlayerO, m.Symbol())
	})

	t.Run("Reset and leave are forwarded upstream", func(t *testing.T) {
		upstream := &fakeUpstream{}
		m := NewOnline(upstream)
		require.NoError(t, m.Apply(ServerState{Room: entity.NewRoom("ABC234", "", entity.ModeClassic)}))

		require.NoError(t, m.Apply(ResetGame{}))
		require.NoError(t, m.Apply(LeaveGame{}))

		assert.Equal(t, []string{"ABC234"}, upstream.resets)
		assert.Equal(t, []string{"ABC234"}, upstream.leaves)
	})

	t.Run("Local move without a game is rejected", func(t *testing.T) {
		m := NewOnline(&fakeUpstream{})

		err := m.Apply(LocalMove{Move: entity.Move{MacroIndex: 0}})

		require.ErrorIs(t, err, ErrNoGame)
	})

	t.Run("Transport disconnect hard-resets the mirror", func(t *testing.T) {
		// Given: a projected room and an assigned seat
		m := NewOnline(&fakeUpstream{})
		require.NoError(t, m.Apply(ServerState{Room: entity.NewRoom("ABC234", "", entity.ModeClassic)}))
		require.NoError(t, m.Apply(AssignSeat{Symbol: tictactoe.PlayerX}))

		// When: the transport drops
		require.NoError(t, m.Apply(HardReset{}))

		// Then: the mirror is empty again
		assert.Nil(t, m.Room())
		assert.Empty(t, m.Symbol())
	})
}

func TestMirror_Offline(t *testing.T) {
	t.Run("Runs the board engine directly", func(t *testing.T) {
		// Given: an offline classic game
		m := NewOffline(entity.ModeClassic)

		// When: both local players alternate moves
		require.NoError(t, m.Apply(LocalMove{Move: entity.Move{MacroIndex: 4}}))
		require.NoError(t, m.Apply(LocalMove{Move: entity.Move{MacroIndex: 0}}))

		// Then: the board reflects both moves with no network step
		assert.Equal(t, tictactoe.PlayerX, m.Room().Board[4])
		assert.Equal(t, tictactoe.PlayerO, m.Room().Board[0])
	})

	t.Run("Tracks the win tally across resets", func(t *testing.T) {
		// Given: an offline game X wins on the {2,4,6} diagonal
		m := NewOffline(entity.ModeClassic)
		for _, cell := range []int{4, 0, 2, 8, 6} {
			require.NoError(t, m.Apply(LocalMove{Move: entity.Move{MacroIndex: cell}}))
		}
		require.Equal(t, entity.StatusFinished, m.Room().Status)

		// When: the game is reset and X wins again
		require.NoError(t, m.Apply(ResetGame{}))
		for _, cell := range []int{4, 0, 2, 8, 6} {
			require.NoError(t, m.Apply(LocalMove{Move: entity.Move{MacroIndex: cell}}))
		}

		// Then: the tally accumulated across the reset
		assert.Equal(t, 2, m.Scores().X)
		assert.Equal(t, 0, m.Scores().O)
	})

	t.Run("Offline ultimate honors the forwarding rule", func(t *testing.T) {
		// Given: an offline ultimate game
		m := NewOffline(entity.ModeUltimate)

		// When: X plays macro 0, cell 4
		require.NoError(t, m.Apply(LocalMove{Move: entity.Move{MacroIndex: 0, CellIndex: intPtr(4)}}))

		// Then: the next mover is forwarded to macro-board 4
		require.NotNil(t, m.Room().Ultimate.ActiveCell)
		assert.Equal(t, 4, *m.Room().Ultimate.ActiveCell)
	})

	t.Run("Server state does not apply offline", func(t *testing.T) {
		m := NewOffline(entity.ModeClassic)

		err := m.Apply(ServerState{Room: entity.NewRoom("ABC234", "", entity.ModeClassic)})

		require.ErrorIs(t, err, ErrNotOnline)
	})

	t.Run("Leave clears the local game", func(t *testing.T) {
		m := NewOffline(entity.ModeClassic)

		require.NoError(t, m.Apply(LeaveGame{}))

		assert.Nil(t, m.Room())
	})
}
