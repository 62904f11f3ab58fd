package history

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/inference-sim/drawsim/sim"
)

const CurrentCodecVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

type populationSnapshot struct {
	CodecVersion int          `msgpack:"v"`
	Players      []sim.Player `msgpack:"players"`
}

// EncodePlayers packs a population snapshot.
func EncodePlayers(players []sim.Player) ([]byte, error) {
	return msgpack.Marshal(populationSnapshot{CodecVersion: CurrentCodecVersion, Players: players})
}

// DecodePlayers unpacks a population snapshot written by EncodePlayers.
func DecodePlayers(data []byte) ([]sim.Player, error) {
	var snap populationSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.CodecVersion != CurrentCodecVersion {
		return nil, fmt.Errorf("%w: codec %d", ErrVersionMismatch, snap.CodecVersion)
	}
	return snap.Players, nil
}
