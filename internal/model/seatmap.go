package model

import (
	"iter"
	"strconv"
)

// PreviewLimit caps each axis of a rendered seat preview. It is a display
// limit only; stored geometry may be larger.
const PreviewLimit = 20

// Seat is one position in a hall grid. Row and Col are zero based.
type Seat struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Label string `json:"label"`
}

// SeatRow groups the seats of one row for layout rendering.
type SeatRow struct {
	Label string `json:"label"`
	Seats []Seat `json:"seats"`
}

// RowLabel converts a zero-based row index to letters: A..Z, then AA, AB
// and so on (bijective base 26). Negative indices yield "".
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var buf []byte
	for {
		buf = append(buf, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}

// RowIndex is the inverse of RowLabel. It accepts upper or lower case.
func RowIndex(label string) (int, bool) {
	if label == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// SeatLabel names the seat at zero-based (row, col), e.g. (0, 0) -> "A1".
func SeatLabel(row, col int) string {
	return RowLabel(row) + strconv.Itoa(col+1)
}

// PreviewSeatMap lazily yields every seat of a rows x cols grid in row
// major order. Non-positive dimensions yield nothing.
func PreviewSeatMap(rows, cols int) iter.Seq[Seat] {
	return func(yield func(Seat) bool) {
		if rows < 1 || cols < 1 {
			return
		}
		for r := 0; r < rows; r++ {
			row := RowLabel(r)
			for c := 0; c < cols; c++ {
				if !yield(Seat{Row: r, Col: c, Label: row + strconv.Itoa(c+1)}) {
					return
				}
			}
		}
	}
}

// ClampPreview bounds both axes to [0, PreviewLimit].
func ClampPreview(rows, cols int) (int, int) {
	clamp := func(n int) int {
		switch {
		case n < 1:
			return 0
		case n > PreviewLimit:
			return PreviewLimit
		}
		return n
	}
	return clamp(rows), clamp(cols)
}

// SeatGrid materialises the seat map grouped by row.
func SeatGrid(rows, cols int) []SeatRow {
	if rows < 1 || cols < 1 {
		return []SeatRow{}
	}
	out := make([]SeatRow, 0, rows)
	for seat := range PreviewSeatMap(rows, cols) {
		if seat.Col == 0 {
			out = append(out, SeatRow{Label: RowLabel(seat.Row), Seats: make([]Seat, 0, cols)})
		}
		last := &out[len(out)-1]
		last.Seats = append(last.Seats, seat)
	}
	return out
}
