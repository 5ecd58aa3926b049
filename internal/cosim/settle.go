package cosim

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-terrain/internal/output"
	"x-terrain/internal/physics"
)

// Settle доводит гранулярный материал до квазистатического состояния:
// либо прямой симуляцией под тяжестью, либо восстановлением из
// контрольной точки. В обоих случаях в конце фиксируется высота
// поверхности initHeight.
func (n *Node) Settle() error {
	if n.cfg.Type != Granular {
		panic("cosim: Settle применим только к гранулярному террейну")
	}

	if err := n.Construct(); err != nil {
		return err
	}

	if n.cfg.UseCheckpoint {
		if err := n.restoreCheckpoint(); err != nil {
			return err
		}
	} else {
		n.settleSimulate()
	}

	// Высота поверхности: максимум Z по всем телам материала плюс
	// радиус частицы - зазор для установки машины.
	n.initHeight = 0
	for h := 0; h < n.engine.NumBodies(); h++ {
		if n.engine.Identifier(physics.BodyHandle(h)) <= 0 {
			continue
		}
		if z := n.engine.State(physics.BodyHandle(h)).Pos.Z(); z > n.initHeight {
			n.initHeight = z
		}
	}
	n.initHeight += n.cfg.RadiusG

	return nil
}

func (n *Node) settleSimulate() {
	simSteps := int(math.Ceil(n.cfg.TimeSettling / n.cfg.StepSize))
	outputSteps := int(math.Ceil(1 / (settlingOutputFPS * n.cfg.StepSize)))
	outputFrame := 0

	for is := 0; is < simSteps; is++ {
		start := time.Now()
		n.engine.Step(n.cfg.StepSize)
		n.cumSimTime += time.Since(start)

		if n.cfg.SettlingOutput && is%outputSteps == 0 {
			filename := fmt.Sprintf("%s/settling_%04d.dat", n.cfg.NodeOutDir, outputFrame+1)
			if err := n.writeSnapshotFile(filename); err != nil {
				n.log.Printf("снимок осадки: %v", err)
			}
			outputFrame++
		}
	}

	n.log.Printf("время осадки = %v", n.cumSimTime)
	n.cumSimTime = 0
}

// restoreCheckpoint читает файл рестарта и переносит состояние частиц
// в движок. Несовпадение числа частиц с построенной упаковкой -
// фатальная несогласованность: завершается вся распределенная задача.
func (n *Node) restoreCheckpoint() error {
	filename := n.cfg.OutDir + "/" + CheckpointFilename
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("контрольная точка: %w", err)
	}
	defer f.Close()

	// Время в файле отбрасывается.
	_, recs, err := output.ReadCheckpoint(f)
	if err != nil {
		return fmt.Errorf("контрольная точка: %w", err)
	}

	if len(recs) != n.numParticles {
		n.log.Printf("ОШИБКА: число частиц в контрольной точке (%d) не совпадает с построенным (%d)",
			len(recs), n.numParticles)
		n.conn.Abort(1)
		return fmt.Errorf("несогласованная контрольная точка")
	}

	for i, rec := range recs {
		h := physics.BodyHandle(n.particlesStart + i)
		if n.engine.Identifier(h) != rec.ID {
			n.log.Printf("ОШИБКА: идентификатор %d не на своем месте в контрольной точке", rec.ID)
			n.conn.Abort(1)
			return fmt.Errorf("несогласованная контрольная точка")
		}
		n.engine.SetBodyState(h, physics.BodyState{
			Pos:    rec.Pos,
			Rot:    rec.Rot,
			LinVel: rec.LinVel,
			AngVel: angVelFromQuatDt(rec.Rot, rec.RotDt),
		})
	}

	n.log.Printf("контрольная точка прочитана <=== %s  частиц = %d", filename, len(recs))
	return nil
}

// quatDtFromAngVel - производная кватерниона ориентации по угловой
// скорости в мировой системе: q' = 0.5 * (0, w) * q.
func quatDtFromAngVel(q mgl64.Quat, w mgl64.Vec3) mgl64.Quat {
	return mgl64.Quat{W: 0, V: w}.Mul(q).Scale(0.5)
}

// angVelFromQuatDt - обратное преобразование: w = 2 * q' * conj(q).
func angVelFromQuatDt(q, qdt mgl64.Quat) mgl64.Vec3 {
	return qdt.Mul(q.Conjugate()).Scale(2).V
}
