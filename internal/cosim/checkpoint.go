package cosim

import (
	"fmt"
	"os"

	"x-terrain/internal/output"
	"x-terrain/internal/physics"
)

// WriteCheckpoint сохраняет состояние гранулярного материала в файл
// рестарта. Отбираются только тела материала (по идентификатору),
// в порядке их добавления в систему.
func (n *Node) WriteCheckpoint() error {
	var recs []output.CheckpointRecord
	for h := 0; h < n.engine.NumBodies(); h++ {
		id := n.engine.Identifier(physics.BodyHandle(h))
		if id < idGranularBase {
			continue
		}
		st := n.engine.State(physics.BodyHandle(h))
		recs = append(recs, output.CheckpointRecord{
			ID:     id,
			Pos:    st.Pos,
			Rot:    st.Rot,
			LinVel: st.LinVel,
			RotDt:  quatDtFromAngVel(st.Rot, st.AngVel),
		})
	}

	filename := n.cfg.OutDir + "/" + CheckpointFilename
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("контрольная точка: %w", err)
	}
	defer f.Close()

	if err := output.WriteCheckpoint(f, n.engine.Time(), recs); err != nil {
		return fmt.Errorf("контрольная точка: %w", err)
	}
	n.log.Printf("контрольная точка записана ===> %s", filename)
	return nil
}

// OutputData пишет пофреймовый файл состояния частиц для инспекции.
func (n *Node) OutputData(frame int) error {
	if n.cfg.NodeOutDir == "" {
		return nil
	}
	filename := fmt.Sprintf("%s/data_%04d.dat", n.cfg.NodeOutDir, frame+1)
	return n.writeSnapshotFile(filename)
}

func (n *Node) writeSnapshotFile(filename string) error {
	var recs []output.SnapshotRecord
	for h := 0; h < n.engine.NumBodies(); h++ {
		id := n.engine.Identifier(physics.BodyHandle(h))
		if id < idGranularBase {
			continue
		}
		st := n.engine.State(physics.BodyHandle(h))
		recs = append(recs, output.SnapshotRecord{ID: id, Pos: st.Pos, Vel: st.LinVel})
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return output.WriteSnapshot(f, n.engine.Time(), n.cfg.RadiusG, recs)
}
