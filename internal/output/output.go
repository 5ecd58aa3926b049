// Package output - текстовые форматы узла террейна: контрольная точка
// для рестарта, снимки частиц при осадке и дамп настроек.
//
// Все числа пишутся через strconv в кратчайшей форме, восстанавливающей
// значение бит-в-бит, поэтому цикл запись-чтение контрольной точки
// воспроизводит состояние точно.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// CheckpointRecord - одна строка контрольной точки. RotDt - производная
// кватерниона ориентации (так хранит состояние файл рестарта).
type CheckpointRecord struct {
	ID     int
	Pos    mgl64.Vec3
	Rot    mgl64.Quat
	LinVel mgl64.Vec3
	RotDt  mgl64.Quat
}

// SnapshotRecord - одна строка снимка осадки.
type SnapshotRecord struct {
	ID  int
	Pos mgl64.Vec3
	Vel mgl64.Vec3
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeFloats(w *bufio.Writer, vals ...float64) error {
	for _, v := range vals {
		if _, err := w.WriteString(" " + ftoa(v)); err != nil {
			return err
		}
	}
	return nil
}

// WriteCheckpoint пишет контрольную точку: строка времени, строка числа
// частиц, затем по строке на частицу
// `id pos(3) rot(4) vel(3) rot_dt(4)`.
func WriteCheckpoint(w io.Writer, time float64, recs []CheckpointRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%d\n", ftoa(time), len(recs)); err != nil {
		return err
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(bw, "%d", r.ID); err != nil {
			return err
		}
		if err := writeFloats(bw,
			r.Pos.X(), r.Pos.Y(), r.Pos.Z(),
			r.Rot.W, r.Rot.V.X(), r.Rot.V.Y(), r.Rot.V.Z(),
			r.LinVel.X(), r.LinVel.Y(), r.LinVel.Z(),
			r.RotDt.W, r.RotDt.V.X(), r.RotDt.V.Y(), r.RotDt.V.Z()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCheckpoint читает контрольную точку, записанную WriteCheckpoint.
func ReadCheckpoint(r io.Reader) (time float64, recs []CheckpointRecord, err error) {
	br := bufio.NewReader(r)

	if _, err = fmt.Fscan(br, &time); err != nil {
		return 0, nil, fmt.Errorf("чтение времени: %w", err)
	}
	var count int
	if _, err = fmt.Fscan(br, &count); err != nil {
		return 0, nil, fmt.Errorf("чтение числа частиц: %w", err)
	}

	recs = make([]CheckpointRecord, count)
	for i := range recs {
		rec := &recs[i]
		_, err = fmt.Fscan(br, &rec.ID,
			&rec.Pos[0], &rec.Pos[1], &rec.Pos[2],
			&rec.Rot.W, &rec.Rot.V[0], &rec.Rot.V[1], &rec.Rot.V[2],
			&rec.LinVel[0], &rec.LinVel[1], &rec.LinVel[2],
			&rec.RotDt.W, &rec.RotDt.V[0], &rec.RotDt.V[1], &rec.RotDt.V[2])
		if err != nil {
			return 0, nil, fmt.Errorf("чтение частицы %d: %w", i, err)
		}
	}
	return time, recs, nil
}

// WriteSnapshot пишет снимок частиц: строка времени, строка
// `count radius`, затем по строке `id pos(3) vel(3)`.
func WriteSnapshot(w io.Writer, time, radius float64, recs []SnapshotRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%d %s\n", ftoa(time), len(recs), ftoa(radius)); err != nil {
		return err
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(bw, "%d", r.ID); err != nil {
			return err
		}
		if err := writeFloats(bw,
			r.Pos.X(), r.Pos.Y(), r.Pos.Z(),
			r.Vel.X(), r.Vel.Y(), r.Vel.Z()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
