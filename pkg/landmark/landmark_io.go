package landmark

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/util"
)

// landmark file layout (bzip2 compressed text):
//
//	numLandmarks numVertices
//	per landmark: id line, then d(L,v) line, then d(v,L) line, v ascending
func (lm *Landmark) WriteLandmarks(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}

	w := bufio.NewWriter(bz)

	k := lm.Count()
	n := 0
	if k > 0 {
		n = len(lm.distFrom[0])
	}
	fmt.Fprintf(w, "%d %d\n", k, n)

	for i, l := range lm.landmarks {
		fmt.Fprintf(w, "%d\n", l)
		writeDistanceRow(w, lm.distFrom[i])

		toRow := make([]float64, n)
		for v := 0; v < n; v++ {
			toRow[v] = lm.distTo[v][i]
		}
		writeDistanceRow(w, toRow)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	// the bzip2 trailer only hits the file on close
	if err := bz.Close(); err != nil {
		return err
	}
	return f.Close()
}

func writeDistanceRow(w *bufio.Writer, row []float64) {
	for v, d := range row {
		if v > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(strconv.FormatFloat(d, 'f', -1, 64))
	}
	w.WriteByte('\n')
}

func ReadLandmarks(filename string) (*Landmark, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	bz, err := bzip2.NewReader(f, nil)

	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(bz)

	line, err := util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(line)
	if len(tokens) != 2 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "malformed landmark header %q", line)
	}

	k, err := strconv.Atoi(tokens[0])
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(tokens[1])
	if err != nil {
		return nil, err
	}

	lm := &Landmark{
		landmarks: make([]da.Index, k),
		distFrom:  make([][]float64, k),
		distTo:    make([][]float64, n),
	}
	for v := 0; v < n; v++ {
		lm.distTo[v] = make([]float64, k)
	}

	for i := 0; i < k; i++ {
		idLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		lm.landmarks[i], err = da.ParseIndex(strings.TrimSpace(idLine))
		if err != nil {
			return nil, err
		}

		lm.distFrom[i], err = readDistanceRow(br, n)
		if err != nil {
			return nil, err
		}

		toRow, err := readDistanceRow(br, n)
		if err != nil {
			return nil, err
		}
		for v := 0; v < n; v++ {
			lm.distTo[v][i] = toRow[v]
		}
	}

	return lm, nil
}

func readDistanceRow(br *bufio.Reader, n int) ([]float64, error) {
	line, err := util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(line)
	if len(tokens) != n {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
			"distance row holds %d entries, want %d", len(tokens), n)
	}

	row := make([]float64, n)
	for v, token := range tokens {
		row[v], err = strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, err
		}
	}
	return row, nil
}
